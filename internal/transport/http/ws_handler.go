package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/domain"
)

type WSHandler struct {
	service  *app.BattleService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.BattleService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type challengePayload struct {
	OpponentID    string `json:"opponentId"`
	Topic         string `json:"topic"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"questionCount"`
	TimeLimitMs   int64  `json:"timeLimitMs"`
	NoSpeedBonus  bool   `json:"noSpeedBonus"`
	NoStreakBonus bool   `json:"noStreakBonus"`
}

type challengeRefPayload struct {
	ChallengeID string `json:"challengeId"`
}

type queuePayload struct {
	SkillLevel int `json:"skillLevel"`
}

type answerPayload struct {
	BattleID      string `json:"battleId"`
	QuestionIndex int    `json:"questionIndex"`
	SelectedIndex int    `json:"selectedIndex"`
}

type answerAck struct {
	QuestionIndex int  `json:"questionIndex"`
	Correct       bool `json:"correct"`
	Points        int  `json:"points"`
	TotalScore    int  `json:"totalScore,omitempty"`
}

type queueAck struct {
	Position int `json:"position"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the
// battle engine: commands in, engine events out.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if userID == "" || displayName == "" {
		http.Error(w, "missing userId or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.service.Subscribe(userID)
	defer cancel()

	if battle, ok := h.service.BattleForPlayer(userID); ok {
		battle.SetConnected(userID, true)
	}
	defer func() {
		h.service.LeaveQueue(userID)
		if battle, ok := h.service.BattleForPlayer(userID); ok {
			battle.SetConnected(userID, false)
		}
	}()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: string(event.Type), Payload: event}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "connected", Payload: map[string]string{"userId": userID}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, inbound, userID, displayName, send)
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, inbound inboundMessage, userID, displayName string, send chan outboundMessage[any]) {
	fail := func(err error) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}
	badPayload := func() {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid payload"}}
	}

	switch inbound.Type {
	case "challenge":
		var payload challengePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			badPayload()
			return
		}
		challenge, err := h.service.ProposeChallenge(
			domain.Participant{ID: userID, DisplayName: displayName},
			payload.OpponentID,
			domain.BattleSettings{
				Topic:         payload.Topic,
				Difficulty:    domain.Difficulty(payload.Difficulty),
				QuestionCount: payload.QuestionCount,
				TimeLimit:     time.Duration(payload.TimeLimitMs) * time.Millisecond,
				SpeedBonus:    !payload.NoSpeedBonus,
				StreakBonus:   !payload.NoStreakBonus,
			},
		)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "challenge_sent", Payload: challenge}

	case "accept":
		var payload challengeRefPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			badPayload()
			return
		}
		if _, err := h.service.AcceptChallenge(r.Context(), payload.ChallengeID, domain.Participant{ID: userID, DisplayName: displayName}); err != nil {
			fail(err)
		}

	case "decline":
		var payload challengeRefPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			badPayload()
			return
		}
		if err := h.service.DeclineChallenge(payload.ChallengeID, userID); err != nil {
			fail(err)
		}

	case "queue":
		var payload queuePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			badPayload()
			return
		}
		position, err := h.service.JoinQueue(domain.Participant{
			ID:          userID,
			DisplayName: displayName,
			SkillLevel:  payload.SkillLevel,
		})
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "queued", Payload: queueAck{Position: position}}

	case "leave_queue":
		h.service.LeaveQueue(userID)
		send <- outboundMessage[any]{Type: "left_queue", Payload: struct{}{}}

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			badPayload()
			return
		}
		answer, err := h.service.SubmitAnswer(payload.BattleID, userID, payload.QuestionIndex, payload.SelectedIndex)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "answer_result", Payload: answerAck{
			QuestionIndex: answer.QuestionIndex,
			Correct:       answer.Correct,
			Points:        answer.Points,
		}}

	default:
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
}
