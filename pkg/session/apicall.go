package session

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/erwinkn/pulse-ui-sub000/pkg/wire"
)

// handleAPICall performs the fetch an api_call message describes and replies
// with api_result (spec §4.5/§6). Runs on its own goroutine since it blocks
// on network I/O; Session's own state is only touched via writeOrQueue.
func (s *Session) handleAPICall(obj *wire.Object) {
	id, _ := objString(obj, "id")
	reqURL, _ := objString(obj, "url")
	method, _ := objString(obj, "method")
	if method == "" {
		method = http.MethodGet
	}
	// credentials (default "include") governs the wasm build's fetch-shim
	// cookie policy; net/http has no portable knob for it on this build.

	var bodyReader io.Reader
	if bodyVal, ok := obj.Get("body"); ok && bodyVal != nil {
		if str, ok := bodyVal.(string); ok {
			bodyReader = strings.NewReader(str)
		} else {
			encoded, err := json.Marshal(wire.ToJSON(bodyVal))
			if err == nil {
				bodyReader = bytes.NewReader(encoded)
			}
		}
	}

	req, err := http.NewRequest(method, reqURL, bodyReader)
	if err != nil {
		s.sendAPIResult(id, false, 0, nil, errorBody(err))
		return
	}
	if headersVal, ok := obj.Get("headers"); ok {
		if headers, ok := headersVal.(*wire.Object); ok {
			for _, k := range headers.Keys() {
				v, _ := headers.Get(k)
				if sv, ok := v.(string); ok {
					req.Header.Set(k, sv)
				}
			}
		}
	}

	resp, err := s.http.Do(req)
	if err != nil {
		s.sendAPIResult(id, false, 0, nil, errorBody(err))
		return
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		s.sendAPIResult(id, false, 0, nil, errorBody(err))
		return
	}

	respHeaders := wire.NewObject()
	for k := range resp.Header {
		respHeaders.Set(k, resp.Header.Get(k))
	}

	var body any
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var decoded any
		if err := json.Unmarshal(respData, &decoded); err == nil {
			body = wire.FromJSON(decoded)
		} else {
			body = string(respData)
		}
	} else {
		body = string(respData)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	s.sendAPIResult(id, ok, resp.StatusCode, respHeaders, body)
}

// errorBody builds the {error} body spec §4.5 requires for a network/parse
// failure (ok:false, status:0).
func errorBody(err error) *wire.Object {
	obj := wire.NewObject()
	obj.Set("error", err.Error())
	return obj
}

func (s *Session) sendAPIResult(id string, ok bool, status int, headers any, body any) {
	obj := wire.NewObject()
	obj.Set("type", "api_result")
	obj.Set("id", id)
	obj.Set("ok", ok)
	obj.Set("status", status)
	obj.Set("headers", headers)
	obj.Set("body", body)
	_ = s.writeOrQueue(queuedOther, "", obj)
}
