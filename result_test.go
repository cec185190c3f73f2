package flowdex

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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultOk(t *testing.T) {
	r := Ok(NewNode("a", "b"))
	assert.False(t, r.IsErr())
	assert.Nil(t, r.Error())

	v, ok := r.Value()
	assert.True(t, ok)
	assert.Equal(t, "a", v.Path)
}

func TestResultErr(t *testing.T) {
	err := errors.New("boom")
	r := Err[Node](err)
	assert.True(t, r.IsErr())
	assert.Equal(t, err, r.Error())

	_, ok := r.Value()
	assert.False(t, ok)
}

func TestResultMustPanicsOnErr(t *testing.T) {
	r := Err[Node](errors.New("boom"))
	assert.Panics(t, func() { r.Must() })
}
