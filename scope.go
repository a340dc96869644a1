/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import (
	"fmt"
	"github.com/google/uuid"
	"sync"
)

/**
Conversation scope keeps objects until the conversation is reset.
Each conversation has its own id.
*/

type ConversationScope struct {
	mu      sync.Mutex
	id      uuid.UUID
	objects map[string]interface{}
}

func NewConversationScope() *ConversationScope {
	return &ConversationScope{
		id:      uuid.New(),
		objects: make(map[string]interface{}),
	}
}

func (t *ConversationScope) ConversationID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id.String()
}

// the factory may resolve other objects of the scope, so it runs unlocked
func (t *ConversationScope) Get(name string, factory func() (interface{}, error)) (interface{}, error) {
	t.mu.Lock()
	if obj, ok := t.objects[name]; ok {
		t.mu.Unlock()
		return obj, nil
	}
	id := t.id
	t.mu.Unlock()

	obj, err := factory()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.objects[name]; ok && t.id == id {
		return prev, nil
	}
	if t.id == id {
		t.objects[name] = obj
	}
	return obj, nil
}

func (t *ConversationScope) Remove(name string) (interface{}, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	obj, ok := t.objects[name]
	delete(t.objects, name)
	return obj, ok
}

/**
Ends the conversation, drops all objects and starts a new one
*/
func (t *ConversationScope) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if verbose != nil {
		verbose.Printf("Conversation %s ended, objects %d\n", t.id, len(t.objects))
	}
	t.id = uuid.New()
	t.objects = make(map[string]interface{})
}

func (t *ConversationScope) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf("ConversationScope [id=%s, objects=%d]", t.id, len(t.objects))
}
