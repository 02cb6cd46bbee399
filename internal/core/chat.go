package core

import (
	"sync"

	"go.uber.org/zap"

	"therapy-agent/internal/llm"
)

// ChatService hands out the agent conversation controller for each
// patient.  One controller exists per patient at a time, mirroring the
// one-chat-screen-per-patient model of the client.
type ChatService struct {
	mu          sync.Mutex
	controllers map[int]*Controller

	source SessionDataSource
	agent  llm.Client
	log    *zap.Logger
}

// NewChatService constructs a ChatService with the given session data
// source and agent client.
func NewChatService(source SessionDataSource, agent llm.Client, log *zap.Logger) *ChatService {
	return &ChatService{
		controllers: map[int]*Controller{},
		source:      source,
		agent:       agent,
		log:         log,
	}
}

// Controller returns the controller for a patient, creating it in the
// unset mode on first use.
func (s *ChatService) Controller(patientID int) *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.controllers[patientID]; ok {
		return c
	}
	c := NewController(patientID, s.source, s.agent, s.log)
	s.controllers[patientID] = c
	return c
}
