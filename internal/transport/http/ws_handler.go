package http

import (
	"encoding/json"
	"log"
	"net/http"

	"bantay-bayan/internal/app"
	"bantay-bayan/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler runs a quiz play session over a websocket.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type wsError struct {
	Message string `json:"message"`
}

// ServeWS authenticates from the query string (browsers cannot set headers on
// websocket upgrades), sends the play view and then answers submit/retake messages.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	token := r.URL.Query().Get("token")
	if quizID == "" || token == "" {
		http.Error(w, "missing quizId or token", http.StatusBadRequest)
		return
	}
	caller, err := h.service.Authenticate(r.Context(), token)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	play, err := h.service.PlayQuiz(r.Context(), caller, quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[wsError]{Type: "error", Payload: wsError{Message: errorMessage(err)}})
		return
	}
	if err := conn.WriteJSON(outboundMessage[domain.PlayableQuiz]{Type: "quiz", Payload: play}); err != nil {
		log.Printf("ws write error: %v", err)
		return
	}

	// Replies are written from this goroutine only, so writes never overlap.
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		reply := h.handle(r, caller, quizID, inbound)
		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}

func (h *WSHandler) handle(r *http.Request, caller domain.CallerIdentity, quizID string, inbound inboundMessage) outboundMessage[any] {
	switch inbound.Type {
	case "submit":
		var submission domain.Submission
		if err := json.Unmarshal(inbound.Payload, &submission); err != nil {
			return errorMessageFrame("invalid submit payload")
		}
		result, err := h.service.SubmitQuiz(r.Context(), caller, quizID, submission)
		if err != nil {
			if statusFor(err) == http.StatusInternalServerError {
				log.Printf("ws submit %s failed: %v", quizID, err)
			}
			return errorMessageFrame(errorMessage(err))
		}
		return outboundMessage[any]{Type: "result", Payload: result}
	case "retake":
		play, err := h.service.RetakeQuiz(r.Context(), caller, quizID)
		if err != nil {
			return errorMessageFrame(errorMessage(err))
		}
		return outboundMessage[any]{Type: "quiz", Payload: play}
	default:
		return errorMessageFrame("unsupported message type")
	}
}

func errorMessageFrame(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: wsError{Message: msg}}
}
