// Package http provides a flowdex.Loader that accepts Nodes over HTTP
// POST, grounded directly on the teacher's processor/source/http package:
// an httprouter-based endpoint at the fixed Config.Path, optional basic
// auth, and a synchronous per-request ack so the caller learns whether
// the Node was accepted into the stream before the HTTP response
// completes. Generalized from streams.Record to flowdex.Node.
package http

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
	"io"
	"net/http"
	"time"

	"github.com/brunotm/flowdex"
	"github.com/brunotm/flowdex/internal/httpserver"
	"github.com/brunotm/flowdex/log"
)

// Config configures the Loader's listening server and optional basic auth.
type Config struct {
	Addr              string
	Path              string
	BasicAuthUser     string
	BasicAuthPassword string
	WriteTimeout      time.Duration
	ReadTimeout       time.Duration
}

// postedNode is the wire shape a POST body decodes to.
type postedNode struct {
	Path  string `json:"path"`
	Chunk string `json:"chunk"`
}

// Loader accepts Nodes posted as JSON to Config.Path and feeds them into
// the pipeline's stream, acking each request only once the Node has been
// placed on the stream's bounded channel (or the request context is
// cancelled).
type Loader struct {
	config Config
	server *httpserver.Server
	logger log.Logger
}

var _ flowdex.Loader = (*Loader)(nil)

// New creates an http Loader listening per config. The server is not
// started until IntoStream is called.
func New(config Config) *Loader {
	return &Loader{
		config: config,
		logger: log.New("loader", "http", "addr", config.Addr),
	}
}

// IntoStream starts the HTTP server in a background goroutine and returns
// a Stream fed by incoming POST requests. The server stops when ctx is
// cancelled.
func (l *Loader) IntoStream(ctx context.Context) (flowdex.Stream, error) {
	ch := make(chan flowdex.Result[flowdex.Node], flowdex.DefaultBufferSize)

	l.server = httpserver.New(httpserver.Config{
		Addr:         l.config.Addr,
		WriteTimeout: l.config.WriteTimeout,
		ReadTimeout:  l.config.ReadTimeout,
	})

	handler := httpserver.Handle(func(w http.ResponseWriter, r *http.Request, _ httpserver.Params) {
		l.handlePost(ctx, ch, w, r)
	})

	if l.config.BasicAuthUser != "" {
		handler = httpserver.BasicAuth(handler, l.config.BasicAuthUser, l.config.BasicAuthPassword)
	}

	l.server.AddHandler(http.MethodPost, l.config.Path, handler)

	go func() {
		if err := l.server.Start(); err != nil {
			l.logger.Errorw("http loader server stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.server.Close(shutdownCtx)
		close(ch)
	}()

	return flowdex.FromChannel(ctx, ch), nil
}

func (l *Loader) handlePost(ctx context.Context, ch chan<- flowdex.Result[flowdex.Node], w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var posted postedNode
	if err := json.Unmarshal(body, &posted); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	node := flowdex.NewNode(posted.Path, posted.Chunk)

	select {
	case ch <- flowdex.Ok(node):
		w.WriteHeader(http.StatusAccepted)
	case <-r.Context().Done():
		http.Error(w, r.Context().Err().Error(), http.StatusServiceUnavailable)
	case <-ctx.Done():
		http.Error(w, ctx.Err().Error(), http.StatusServiceUnavailable)
	}
}
