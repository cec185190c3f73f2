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
	"encoding/binary"
	"encoding/json"
)

// EncodeNode serializes a Node to bytes for a byte-oriented store, the Go
// equivalent of the teacher's Record.Value.Encode() step (store/leveldb.go,
// store/moss.go Process), generalized from the teacher's custom encoder.go
// to plain JSON since Node carries arbitrary Metadata values.
func EncodeNode(n Node) ([]byte, error) {
	return json.Marshal(n)
}

// DecodeNode is the inverse of EncodeNode.
func DecodeNode(data []byte) (Node, error) {
	var n Node
	err := json.Unmarshal(data, &n)
	return n, err
}

// EncodeKey renders a Node's ID as a fixed-width big-endian key, keeping
// byte-lexicographic order consistent with numeric ID order so Range scans
// over a cache or persister's backing store visit Nodes in ID order.
func EncodeKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}
