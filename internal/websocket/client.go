package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/voicekey/server/domain"
	"github.com/satriahrh/voicekey/server/internal/audio/capture"
	"github.com/satriahrh/voicekey/server/internal/recorder"
	"github.com/satriahrh/voicekey/server/internal/waveform"
)

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and its recorder.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	id     string
	logger *zap.Logger

	validator *MessageValidator
	mic       *Microphone
	recorder  *recorder.Recorder

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, logger *zap.Logger) *Client {
	c := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, 256),
		id:        uuid.New().String(),
		validator: NewMessageValidator(),
	}
	c.logger = logger.With(zap.String("clientID", c.id))
	c.mic = NewMicrophone(c.sendJSON, c.logger)
	c.recorder = recorder.New(c.mic, hub.recorderConfig, recorder.Callbacks{
		OnStatus:            c.publishStatus,
		OnError:             c.publishError,
		OnFrame:             c.publishFrame,
		OnRecordingComplete: c.publishRecording,
	}, c.logger)
	return c
}

// close tears down the recorder and the microphone before closing send.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.recorder.Close()
		c.mic.shutdown()

		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

// readPump pumps messages from the websocket connection to the recorder.
func (c *Client) readPump() {
	defer func() {
		c.hub.enqueueUnregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.mic.deliver(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the client to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage handles a control message from the browser
func (c *Client) processMessage(message []byte) {
	msg, err := c.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Rejected message", zap.Error(err))
		c.sendJSON(CreateErrorMessage(domain.ErrorCodeInvalidMessage, "Invalid message", err.Error()))
		return
	}

	switch m := msg.(type) {
	case *domain.ControlMessage:
		switch m.Type {
		case domain.MessageTypeRecordingToggle:
			c.reportCommand(c.recorder.Toggle())
		case domain.MessageTypeRecordingStart:
			c.reportCommand(c.recorder.Start())
		case domain.MessageTypeRecordingStop:
			c.reportCommand(c.recorder.Stop())
		case domain.MessageTypeRecordingFlushed:
			c.mic.flushed()
		}
	case *domain.MicrophoneGrantedMessage:
		c.logger.Info("Microphone granted",
			zap.String("mime_type", m.MIMEType),
			zap.Int("sample_rate", m.SampleRate),
			zap.String("encoding", m.Encoding))
		c.mic.granted(m)
	case *domain.MicrophoneDeniedMessage:
		c.logger.Info("Microphone denied", zap.String("reason", m.Reason))
		c.mic.denied(m.Reason)
	case *domain.PingMessage:
		c.sendJSON(CreatePongMessage(m.Data))
	}
}

func (c *Client) reportCommand(err error) {
	if err == nil || errors.Is(err, recorder.ErrClosed) {
		return
	}
	c.publishError(err)
}

func (c *Client) publishStatus(s recorder.Status) {
	c.sendJSON(&domain.StatusMessage{
		BaseMessage: newBase(domain.MessageTypeStatus),
		RecorderID:  c.recorder.ID(),
		Status:      s.String(),
		Label:       s.ButtonLabel(),
		Enabled:     s.Enabled(),
		Prompt:      s.Prompt(),
	})
}

func (c *Client) publishError(err error) {
	code, text := describeError(err)
	c.sendJSON(CreateErrorMessage(code, text, err.Error()))
}

func (c *Client) publishFrame(p waveform.Path) {
	c.sendJSON(&domain.WaveformMessage{
		BaseMessage: domain.BaseMessage{Type: domain.MessageTypeWaveform},
		Path:        p.String(),
		Width:       p.Width,
		Height:      p.Height,
	})
}

func (c *Client) publishRecording(dataURI string) {
	c.sendJSON(&domain.RecordingCompleteMessage{
		BaseMessage: newBase(domain.MessageTypeRecordingComplete),
		RecorderID:  c.recorder.ID(),
		DataURI:     dataURI,
	})
}

// describeError maps recorder failures to an error code and the notice shown
// to the user.
func describeError(err error) (string, string) {
	switch {
	case errors.Is(err, capture.ErrPermissionDenied):
		return domain.ErrorCodePermissionDenied, "Please allow microphone access to record your voice."
	case errors.Is(err, capture.ErrUnsupportedPlatform):
		return domain.ErrorCodeUnsupportedPlatform, "Media Devices API not supported in this browser."
	case errors.Is(err, capture.ErrDeviceUnavailable):
		return domain.ErrorCodeDeviceUnavailable, "No microphone is available."
	case errors.Is(err, recorder.ErrBusy):
		return domain.ErrorCodeRecorderBusy, "The recorder is busy."
	default:
		return domain.ErrorCodeRecordingFailed, "Recording failed. Please try again."
	}
}

// sendJSON queues v for the write pump. Messages are dropped when the client
// is closed or its buffer is full.
func (c *Client) sendJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Send buffer full, dropping message", zap.Int("size", len(payload)))
	}
}
