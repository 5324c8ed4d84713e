package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/s376930/Chat-Arena/internal/event"
	"github.com/s376930/Chat-Arena/pkg/types"
)

// Chat error messages shown to users.
const (
	msgNoActiveSession = "You are not in an active chat session"
	msgPartnerLost     = "Partner connection lost"
	msgSpeechEmpty     = "Speech field cannot be empty"
)

// wsUpgrader accepts any origin: research deployments serve the frontend
// from a different origin than the API.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleWS upgrades the connection, mints the user's identity and runs the
// frame loop until the client leaves or the transport dies.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	userID := s.table.Connect(conn)
	s.log.Info().Str("user", userID).Msg("user connected")
	event.Publish(event.Event{
		Type: event.UserConnected,
		Data: event.UserConnectedData{UserID: userID},
	})

	s.readLoop(conn, userID)
}

// readLoop dispatches inbound frames. Validation and state errors produce
// error frames and keep the loop alive; only a transport failure or an
// explicit disconnect tears the connection down.
func (s *Server) readLoop(conn *websocket.Conn, userID string) {
	ctx := context.Background()

	for {
		var frame types.ClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Str("user", userID).Msg("websocket read failed")
			}
			s.teardown(ctx, userID, conn)
			return
		}

		switch frame.Type {
		case types.FrameJoin:
			s.pairer.Join(ctx, userID, frame.Consent)
		case types.FrameMessage:
			s.handleChatMessage(ctx, userID, frame)
		case types.FrameReassign:
			s.pairer.Reassign(ctx, userID)
		case types.FrameDisconnect:
			s.teardown(ctx, userID, conn)
			return
		default:
			s.log.Debug().Str("user", userID).Str("type", string(frame.Type)).
				Msg("ignoring unknown frame type")
		}
	}
}

// teardown runs the disconnect protocol and closes the socket.
func (s *Server) teardown(ctx context.Context, userID string, conn *websocket.Conn) {
	s.pairer.Disconnect(ctx, userID)
	conn.Close()

	event.Publish(event.Event{
		Type: event.UserDisconnected,
		Data: event.UserDisconnectedData{UserID: userID},
	})
	s.log.Info().Str("user", userID).Msg("user disconnected")
}

// handleChatMessage validates and routes one chat message. The sender's ack
// carries the same timestamp as the partner's copy. Routing to an AI partner
// is asynchronous so a slow model never stalls the sender's read loop; a
// failed delivery to a human partner is logged, not fatal.
func (s *Server) handleChatMessage(ctx context.Context, userID string, frame types.ClientFrame) {
	sess, ok := s.table.Get(userID)
	if !ok || !sess.Paired {
		s.table.Send(userID, types.ErrorFrame(msgNoActiveSession))
		return
	}
	if sess.PartnerID == "" {
		s.table.Send(userID, types.ErrorFrame(msgPartnerLost))
		return
	}
	if !sess.IsAIPartner && !s.table.VerifyPairing(userID, sess.PartnerID) {
		// Stale pairing: the partner moved on but this side never heard.
		s.table.ClearPairing(userID)
		s.table.Send(userID, types.ErrorFrame(msgPartnerLost))
		return
	}

	s.table.Touch(userID)

	if utf8.RuneCountInString(frame.Think) < s.minThinkChars {
		s.table.Send(userID, types.ErrorFrame(
			fmt.Sprintf("Think field must be at least %d characters", s.minThinkChars)))
		return
	}
	if strings.TrimSpace(frame.Speech) == "" {
		s.table.Send(userID, types.ErrorFrame(msgSpeechEmpty))
		return
	}

	content := types.CanonicalContent(frame.Think, frame.Speech)
	s.conversations.Append(ctx, sess.SessionID, userID, content)

	timestamp := types.NowTimestamp()
	s.table.Send(userID, types.MessageSentFrame(timestamp))

	if sess.IsAIPartner {
		if s.ai != nil {
			go s.ai.Forward(context.Background(), sess.PartnerID, frame.Speech)
		}
	} else if !s.table.SendToPartner(userID, types.PartnerMessageFrame(frame.Speech, timestamp)) {
		s.log.Warn().Str("user", userID).Str("partner", sess.PartnerID).
			Msg("failed to deliver message to partner")
	}

	event.Publish(event.Event{
		Type: event.MessageRouted,
		Data: event.MessageRoutedData{SessionID: sess.SessionID, From: userID, To: sess.PartnerID},
	})
}

// deliverAIMessage carries a finished AI reply to the human partner. The full
// think/speech content goes into the conversation record under the AI's ID;
// the partner sees only the speech.
func (s *Server) deliverAIMessage(aiID, think, speech string) {
	rec, ok := s.table.AISession(aiID)
	if !ok {
		s.log.Warn().Str("ai", aiID).Msg("message from unknown AI participant, dropping")
		return
	}

	ctx := context.Background()
	s.conversations.Append(ctx, rec.SessionID, aiID, types.CanonicalContent(think, speech))

	timestamp := types.NowTimestamp()
	if !s.table.Send(rec.PartnerID, types.PartnerMessageFrame(speech, timestamp)) {
		s.log.Warn().Str("ai", aiID).Str("partner", rec.PartnerID).
			Msg("failed to deliver AI message to partner")
	}

	event.Publish(event.Event{
		Type: event.MessageRouted,
		Data: event.MessageRoutedData{SessionID: rec.SessionID, From: aiID, To: rec.PartnerID},
	})
	s.log.Debug().Str("ai", aiID).Str("partner", rec.PartnerID).Msg("AI message delivered")
}
