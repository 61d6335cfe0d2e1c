package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
)

func TestSendRejectsEmptyMessageBeforePersistence(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	engine := NewEngine(NewCoordinator(), repo)
	sender := NewClient(&fakeConn{})

	_, err := engine.Send(context.Background(), sender, models.SendPayload{
		SenderID:   1,
		ReceiverID: 2,
		Content:    "   ",
	})

	require.ErrorIs(t, err, ErrEmptyMessage)
	repo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendAllowsAttachmentOnlyMessage(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	engine := NewEngine(NewCoordinator(), repo)

	stored := models.Message{ID: 1, SenderID: 1, ReceiverID: 2, Attachments: []string{"/api/uploads/a.png"}}
	repo.On("CreateMessage", mock.Anything, 1, 2, "", []string{"/api/uploads/a.png"}).Return(stored, nil).Once()

	msg, err := engine.Send(context.Background(), NewClient(&fakeConn{}), models.SendPayload{
		SenderID:    1,
		ReceiverID:  2,
		Attachments: []string{"/api/uploads/a.png"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, msg.ID)
	repo.AssertExpectations(t)
}

func TestSendPersistenceFailureDeliversNothing(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	coord := NewCoordinator()
	engine := NewEngine(coord, repo)

	senderConn, receiverConn := &fakeConn{}, &fakeConn{}
	sender, receiver := NewClient(senderConn), NewClient(receiverConn)
	coord.Join(RoomIDFor(1), receiver)
	coord.Join(RoomIDFor(2), sender)

	repo.On("CreateMessage", mock.Anything, 1, 2, "hi", ([]string)(nil)).Return(models.Message{}, assert.AnError).Once()

	_, err := engine.Send(context.Background(), sender, models.SendPayload{SenderID: 1, ReceiverID: 2, Content: "hi"})

	require.Error(t, err)
	assert.Zero(t, senderConn.frameCount(), "no echo when persistence fails")
	assert.Zero(t, receiverConn.frameCount(), "no delivery when persistence fails")
	repo.AssertExpectations(t)
}

func TestSendDeliversEchoAndReceiverViewsWithIsolation(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	coord := NewCoordinator()
	engine := NewEngine(coord, repo)

	connA, connB, connC := &fakeConn{}, &fakeConn{}, &fakeConn{}
	clientA, clientB, clientC := NewClient(connA), NewClient(connB), NewClient(connC)

	// A views the chat with B, B views the chat with A, C views the chat with
	// an unrelated user.
	coord.Join(RoomIDFor(2), clientA)
	coord.Join(RoomIDFor(1), clientB)
	coord.Join(RoomIDFor(3), clientC)

	stored := models.Message{ID: 10, SenderID: 1, ReceiverID: 2, Content: "hi", CreatedAt: time.Now()}
	repo.On("CreateMessage", mock.Anything, 1, 2, "hi", ([]string)(nil)).Return(stored, nil).Once()

	_, err := engine.Send(context.Background(), clientA, models.SendPayload{SenderID: 1, ReceiverID: 2, Content: "hi"})
	require.NoError(t, err)

	echoes := connA.framesFor(models.EventMessage)
	require.Len(t, echoes, 1, "exactly one self-echo")
	echo := decodePayload[models.DeliveredMessage](t, echoes[0])
	assert.True(t, echo.IsSent)
	assert.Equal(t, "hi", echo.Content)

	deliveries := connB.framesFor(models.EventMessage)
	require.Len(t, deliveries, 1)
	delivered := decodePayload[models.DeliveredMessage](t, deliveries[0])
	assert.False(t, delivered.IsSent)
	assert.Equal(t, "hi", delivered.Content)

	assert.Zero(t, connC.frameCount(), "uninvolved rooms receive nothing")
	repo.AssertExpectations(t)
}

func TestSendSelfEchoSurvivesUnreachableReceiver(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	coord := NewCoordinator()
	engine := NewEngine(coord, repo)

	senderConn := &fakeConn{}
	sender := NewClient(senderConn)
	// Nobody joined any room; receiver is offline.

	stored := models.Message{ID: 11, SenderID: 1, ReceiverID: 2, Content: "anyone there?"}
	repo.On("CreateMessage", mock.Anything, 1, 2, "anyone there?", ([]string)(nil)).Return(stored, nil).Once()

	msg, err := engine.Send(context.Background(), sender, models.SendPayload{SenderID: 1, ReceiverID: 2, Content: "anyone there?"})

	require.NoError(t, err, "zero reachable recipients is not an error")
	assert.Equal(t, 11, msg.ID)
	require.Len(t, senderConn.framesFor(models.EventMessage), 1)
}

func TestSendDeduplicatesAcrossRooms(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	coord := NewCoordinator()
	engine := NewEngine(coord, repo)

	connB := &fakeConn{}
	clientB := NewClient(connB)
	// The receiver somehow joined both fan-out rooms; it must still get one copy.
	coord.Join(RoomIDFor(1), clientB)
	coord.Join(RoomIDFor(2), clientB)

	stored := models.Message{ID: 12, SenderID: 1, ReceiverID: 2, Content: "once"}
	repo.On("CreateMessage", mock.Anything, 1, 2, "once", ([]string)(nil)).Return(stored, nil).Once()

	_, err := engine.Send(context.Background(), NewClient(&fakeConn{}), models.SendPayload{SenderID: 1, ReceiverID: 2, Content: "once"})
	require.NoError(t, err)
	require.Len(t, connB.framesFor(models.EventMessage), 1)
}

func TestTypingRoutesToReceiverRoomOnly(t *testing.T) {
	coord := NewCoordinator()
	engine := NewEngine(coord, new(mocks.MessageRepositoryMock))

	senderConn, peerConn, otherConn := &fakeConn{}, &fakeConn{}, &fakeConn{}
	sender, peer, other := NewClient(senderConn), NewClient(peerConn), NewClient(otherConn)
	coord.Join(RoomIDFor(2), sender)
	coord.Join(RoomIDFor(2), peer)
	coord.Join(RoomIDFor(3), other)

	engine.Typing(sender, models.TypingPayload{ReceiverID: 2, IsTyping: true})

	require.Len(t, peerConn.framesFor(models.EventTyping), 1)
	payload := decodePayload[models.TypingPayload](t, peerConn.framesFor(models.EventTyping)[0])
	assert.True(t, payload.IsTyping)

	assert.Zero(t, senderConn.frameCount(), "typing is not echoed to its origin")
	assert.Zero(t, otherConn.frameCount())
}

func TestTypingToEmptyRoomIsSilentNoop(t *testing.T) {
	engine := NewEngine(NewCoordinator(), new(mocks.MessageRepositoryMock))
	engine.Typing(NewClient(&fakeConn{}), models.TypingPayload{ReceiverID: 9, IsTyping: true})
}

func TestCheckOnlineStatusAnswersRequesterOnly(t *testing.T) {
	coord := NewCoordinator()
	engine := NewEngine(coord, new(mocks.MessageRepositoryMock))

	onlineConn := &fakeConn{}
	coord.Register(5, NewClient(onlineConn))

	requesterConn := &fakeConn{}
	requester := NewClient(requesterConn)

	engine.CheckOnlineStatus(requester, 5)
	engine.CheckOnlineStatus(requester, 6)

	answers := requesterConn.framesFor(models.EventOnlineStatus)
	require.Len(t, answers, 2)
	assert.True(t, decodePayload[bool](t, answers[0]))
	assert.False(t, decodePayload[bool](t, answers[1]))
	assert.Empty(t, onlineConn.framesFor(models.EventOnlineStatus))
}
