// Package nats provides a flowdex.Loader that consumes Nodes from a NATS
// subject, survey-level grounded on the sibling example repo's
// github.com/nats-io/nats.go dependency (see DESIGN.md) — filling the
// spec's "message bus consumer (topic + offset)" slot (§6).
package nats

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/brunotm/flowdex"
	"github.com/brunotm/flowdex/log"
)

// message is the wire shape a subject's payload decodes to.
type message struct {
	Path  string `json:"path"`
	Chunk string `json:"chunk"`
}

// Loader subscribes to Subject on Conn with a core NATS queue subscription
// in QueueGroup, so each message goes to one member of the group. The
// subscription is not durable and no offset is tracked: messages published
// while no member is subscribed are not delivered to it later.
type Loader struct {
	Conn       *nats.Conn
	Subject    string
	QueueGroup string

	logger log.Logger
}

var _ flowdex.Loader = (*Loader)(nil)

// New creates a Loader over an established connection.
func New(conn *nats.Conn, subject, queueGroup string) *Loader {
	return &Loader{
		Conn:       conn,
		Subject:    subject,
		QueueGroup: queueGroup,
		logger:     log.New("loader", "nats", "subject", subject),
	}
}

// IntoStream subscribes to Subject and emits one Node per message until
// ctx is cancelled, at which point the subscription is drained and the
// stream closed.
func (l *Loader) IntoStream(ctx context.Context) (flowdex.Stream, error) {
	ch := make(chan flowdex.Result[flowdex.Node], flowdex.DefaultBufferSize)

	handler := func(msg *nats.Msg) {
		var m message
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			select {
			case ch <- flowdex.Err[flowdex.Node](err):
			case <-ctx.Done():
			}
			return
		}

		node := flowdex.NewNode(m.Path, m.Chunk)
		select {
		case ch <- flowdex.Ok(node):
		case <-ctx.Done():
		}
	}

	sub, err := l.Conn.QueueSubscribe(l.Subject, l.QueueGroup, handler)
	if err != nil {
		return flowdex.Stream{}, err
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			l.logger.Errorw("drain failed", "error", err)
		}
		close(ch)
	}()

	return flowdex.FromChannel(ctx, ch), nil
}
