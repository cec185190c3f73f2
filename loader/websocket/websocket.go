// Package websocket provides a flowdex.Loader that accepts a long-lived
// client connection and emits one Node per text frame, survey-level
// grounded on the sibling example repo's github.com/gorilla/websocket
// dependency (see DESIGN.md) — a long-lived-connection sibling of
// loader/http.
package websocket

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
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/brunotm/flowdex"
	"github.com/brunotm/flowdex/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// frame is the wire shape of one incoming text frame.
type frame struct {
	Path  string `json:"path"`
	Chunk string `json:"chunk"`
}

// Loader accepts a single client connection, upgraded from an
// http.Request, and emits one Node per text frame it sends.
type Loader struct {
	w http.ResponseWriter
	r *http.Request

	logger log.Logger
}

var _ flowdex.Loader = (*Loader)(nil)

// New creates a Loader that will upgrade the given request when
// IntoStream is called.
func New(w http.ResponseWriter, r *http.Request) *Loader {
	return &Loader{w: w, r: r, logger: log.New("loader", "websocket")}
}

// IntoStream upgrades the HTTP connection and reads frames until the peer
// closes the connection or ctx is cancelled.
func (l *Loader) IntoStream(ctx context.Context) (flowdex.Stream, error) {
	conn, err := upgrader.Upgrade(l.w, l.r, nil)
	if err != nil {
		return flowdex.Stream{}, err
	}

	ch := make(chan flowdex.Result[flowdex.Node], flowdex.DefaultBufferSize)

	go func() {
		defer close(ch)
		defer conn.Close()

		go func() {
			<-ctx.Done()
			conn.Close()
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					l.logger.Errorw("read failed", "error", err)
				}
				return
			}

			var f frame
			if err := json.Unmarshal(data, &f); err != nil {
				select {
				case ch <- flowdex.Err[flowdex.Node](err):
				case <-ctx.Done():
					return
				}
				continue
			}

			node := flowdex.NewNode(f.Path, f.Chunk)
			select {
			case ch <- flowdex.Ok(node):
			case <-ctx.Done():
				return
			}
		}
	}()

	return flowdex.FromChannel(ctx, ch), nil
}
