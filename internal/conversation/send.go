// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/SyDuc7421/chatbot-gui/internal/backend"
	"github.com/SyDuc7421/chatbot-gui/internal/metrics"
	"github.com/SyDuc7421/chatbot-gui/internal/model"
)

// FallbackReply is the assistant message stored when the backend fails.
const FallbackReply = "Sorry, I couldn't process that right now."

// ErrReplyCancelled is returned by Reply.Wait when the reply was paused,
// its context cancelled or its conversation deleted.
var ErrReplyCancelled = errors.New("reply cancelled")

// =============================================================================
// REPLY
// =============================================================================

// Outcome describes how a reply finished.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeAnswered  Outcome = metrics.OutcomeAnswered
	OutcomeFallback  Outcome = metrics.OutcomeFallback
	OutcomeCancelled Outcome = metrics.OutcomeCancelled
)

// Reply is a handle on the assistant reply to one Send.
type Reply struct {
	// ConversationID is the conversation the reply belongs to.
	ConversationID string

	// Request is the user message that was sent.
	Request model.Message

	done    chan struct{}
	once    sync.Once
	outcome Outcome
	message model.Message
	err     error
}

func newReply(convID string, req model.Message) *Reply {
	return &Reply{
		ConversationID: convID,
		Request:        req,
		done:           make(chan struct{}),
		outcome:        OutcomePending,
	}
}

// finish records the result once. Later calls are ignored.
func (r *Reply) finish(outcome Outcome, msg model.Message, err error) {
	r.once.Do(func() {
		r.outcome = outcome
		r.message = msg
		r.err = err
		close(r.done)
		metrics.Sends.WithLabelValues(string(outcome)).Inc()
	})
}

// Done is closed when the reply has finished.
func (r *Reply) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the reply finishes or ctx is done. It returns the
// assistant message, which for a failed request carries FallbackReply.
func (r *Reply) Wait(ctx context.Context) (model.Message, error) {
	select {
	case <-r.done:
	case <-ctx.Done():
		return model.Message{}, ctx.Err()
	}
	if r.outcome == OutcomeCancelled {
		return model.Message{}, ErrReplyCancelled
	}
	return r.message, nil
}

// Outcome returns OutcomePending until the reply finishes.
func (r *Reply) Outcome() Outcome {
	select {
	case <-r.done:
		return r.outcome
	default:
		return OutcomePending
	}
}

// Message returns the assistant message once one has been stored.
func (r *Reply) Message() (model.Message, bool) {
	select {
	case <-r.done:
		return r.message, r.outcome == OutcomeAnswered || r.outcome == OutcomeFallback
	default:
		return model.Message{}, false
	}
}

// Err returns the backend error behind a fallback reply, if any.
func (r *Reply) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// task is one in-flight request. A conversation may have several.
type task struct {
	reply  *Reply
	cancel context.CancelFunc
}

// =============================================================================
// SEND PATHWAY
// =============================================================================

// Send appends a user message and asks the backend for a reply.
//
// The user message is stored before Send returns and the conversation is
// marked awaiting-reply until every outstanding send has finished. Each send
// gets its own assistant message. The backend is called on a separate
// goroutine under a context derived from ctx. Blank content, an unknown
// conversation or a closed store returns nil.
func (s *Store) Send(ctx context.Context, convID, content string) *Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	msg, ok := s.appendLocked(convID, model.RoleUser, content)
	if !ok {
		return nil
	}

	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{reply: newReply(convID, msg), cancel: cancel}
	s.tasks[convID] = append(s.tasks[convID], t)
	s.find(convID).Status = model.StatusAwaitingReply
	s.persist.SaveConversations(s.conversations)

	s.wg.Add(1)
	go s.run(taskCtx, t, content)

	return t.reply
}

// ResendMessage sends the content of an existing message again. The
// original message is not modified.
func (s *Store) ResendMessage(ctx context.Context, convID, msgID string) *Reply {
	s.mu.Lock()
	conv := s.find(convID)
	var content string
	if conv != nil {
		if msg := conv.MessageByID(msgID); msg != nil && !msg.IsBlank() {
			content = msg.Content
		}
	}
	s.mu.Unlock()

	if content == "" {
		return nil
	}
	return s.Send(ctx, convID, content)
}

func (s *Store) run(ctx context.Context, t *task, question string) {
	defer s.wg.Done()
	defer t.cancel()

	convID := t.reply.ConversationID
	answer, err := s.asker.Ask(ctx, question)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.removeTaskLocked(convID, t) {
		// Paused or deleted; the canceller already finished the reply
		t.reply.finish(OutcomeCancelled, model.Message{}, nil)
		return
	}

	conv := s.find(convID)
	if ctx.Err() != nil || backend.IsCancelled(err) || conv == nil {
		if conv != nil && len(s.tasks[convID]) == 0 {
			conv.Status = model.StatusIdle
			s.persist.SaveConversations(s.conversations)
		}
		t.reply.finish(OutcomeCancelled, model.Message{}, ctx.Err())
		return
	}

	outcome := OutcomeAnswered
	if err != nil || strings.TrimSpace(answer) == "" {
		outcome = OutcomeFallback
		answer = FallbackReply
		s.logFallback(convID, err)
	}

	if len(s.tasks[convID]) == 0 {
		conv.Status = model.StatusIdle
	}
	msg, _ := s.appendLocked(convID, model.RoleAssistant, answer)
	s.persist.SaveConversations(s.conversations)
	t.reply.finish(outcome, msg, err)
}

func (s *Store) logFallback(convID string, err error) {
	fields := []zap.Field{zap.String("conversation", convID), zap.Error(err)}
	switch {
	case backend.IsTimeout(err):
		s.log.Warn("chat request timed out, storing fallback reply", fields...)
	case backend.IsInvalidResponse(err), err == nil:
		s.log.Warn("chat backend returned no answer, storing fallback reply", fields...)
	default:
		s.log.Error("chat request failed, storing fallback reply", fields...)
	}
}

// PauseThinking stops waiting for every pending reply in the conversation.
// The requests are cancelled and late answers are discarded. Returns false
// when nothing was pending.
func (s *Store) PauseThinking(convID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.find(convID)
	if conv == nil {
		return false
	}
	hadTask := s.cancelTasksLocked(convID)
	if !hadTask && conv.Status == model.StatusIdle {
		return false
	}
	conv.Status = model.StatusIdle
	s.persist.SaveConversations(s.conversations)
	return true
}

// cancelTasksLocked cancels and forgets every pending reply of the
// conversation.
func (s *Store) cancelTasksLocked(convID string) bool {
	pending := s.tasks[convID]
	if len(pending) == 0 {
		return false
	}
	delete(s.tasks, convID)
	for _, t := range pending {
		t.cancel()
		t.reply.finish(OutcomeCancelled, model.Message{}, context.Canceled)
	}
	return true
}

// removeTaskLocked forgets t and reports whether it was still pending.
func (s *Store) removeTaskLocked(convID string, t *task) bool {
	pending := s.tasks[convID]
	for i, p := range pending {
		if p != t {
			continue
		}
		pending = append(pending[:i:i], pending[i+1:]...)
		if len(pending) == 0 {
			delete(s.tasks, convID)
		} else {
			s.tasks[convID] = pending
		}
		return true
	}
	return false
}

// Thinking reports whether a reply is pending for the conversation.
func (s *Store) Thinking(convID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.find(convID)
	return conv != nil && conv.IsAwaitingReply()
}

// ThinkingIDs returns the IDs of conversations awaiting a reply, in list
// order.
func (s *Store) ThinkingIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, c := range s.conversations {
		if c.IsAwaitingReply() {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Close cancels every pending reply and waits for the request goroutines
// to exit. Sends after Close return nil.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true

	changed := false
	for id := range s.tasks {
		s.cancelTasksLocked(id)
		if conv := s.find(id); conv != nil {
			conv.Status = model.StatusIdle
			changed = true
		}
	}
	if changed {
		s.persist.SaveConversations(s.conversations)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}
