// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracehttp

import (
	"net/http"
	"net/http/httputil"

	"go.uber.org/zap"
)

// traceTransport is an http.RoundTripper that logs the request and
// response while delegating the real work to another
// http.RoundTripper.
type traceTransport struct {
	delegate http.RoundTripper
	log      *zap.Logger
}

// RoundTrip logs a dump of the request and response while delegating the
// round trip to the delegate.  Bodies are dumped only at debug level.
func (t *traceTransport) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	body := t.log.Core().Enabled(zap.DebugLevel)
	dump, dumpErr := httputil.DumpRequestOut(req, body)
	if dumpErr == nil {
		t.log.Info("http request", zap.String("method", req.Method), zap.Stringer("url", req.URL),
			zap.ByteString("dump", dump))
	}
	resp, err = t.delegate.RoundTrip(req)
	if err != nil {
		t.log.Info("http round trip failed", zap.Stringer("url", req.URL), zap.Error(err))
		return resp, err
	}
	dump, dumpErr = httputil.DumpResponse(resp, body)
	if dumpErr == nil {
		t.log.Info("http response", zap.Int("status", resp.StatusCode), zap.ByteString("dump", dump))
	}
	return resp, err
}

func Wrap(d http.RoundTripper, log *zap.Logger) http.RoundTripper {
	return &traceTransport{delegate: d, log: log}
}

// Inject a traceTransport into http.DefaultTransport
func WrapDefaultTransport(log *zap.Logger) {
	http.DefaultTransport = Wrap(http.DefaultTransport, log)
}
