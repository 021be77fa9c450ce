// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palantir/witchcraft-go-server/internal/logging"
	"github.com/palantir/witchcraft-go-server/internal/wcontext"
)

func TestLoggingContext_AttachesRouteAndPeerFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	handler := LoggingContext(func(w http.ResponseWriter, r *http.Request) {
		logging.Ctx(r.Context()).Info().Msg("handled")
	})

	req := httptest.NewRequest(http.MethodGet, "/widgets/1", nil)
	ctx := logging.ContextWithLogger(req.Context(), base)
	ctx = wcontext.WithPeerAddr(ctx, "10.0.0.1")
	ctx = wcontext.WithRouteName(ctx, "get-widget")
	req = req.WithContext(ctx)

	handler(httptest.NewRecorder(), req)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "10.0.0.1", line["peerAddr"])
	assert.Equal(t, "get-widget", line["route"])
}
