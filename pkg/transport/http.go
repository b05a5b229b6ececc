package transport

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/helium-dev/helium/pkg/procedure"
	"github.com/helium-dev/helium/pkg/protocol"
)

// ServeHTTP handles one call per POST request.
//
// Application outcomes (including UnknownProcedure, InvalidArguments and
// HandlerError) are answered with 200 and an envelope. An unparseable
// envelope is answered with 400 and an InvalidArguments envelope.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !isJSONContentType(r.Header.Get("Content-Type")) {
		http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, d.maxMessageSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read request", http.StatusBadRequest)
		return
	}

	req, err := protocol.DecodeRequest(body)
	if err != nil {
		status := http.StatusOK
		if req == nil {
			status = http.StatusBadRequest
		}
		d.writeEnvelope(w, status, decodeFailure(req, err))
		return
	}

	ctx := procedure.WithCallInfo(r.Context(), procedure.CallInfo{
		Transport:  "http",
		RemoteAddr: r.RemoteAddr,
		Header:     r.Header.Clone(),
	})
	d.writeEnvelope(w, http.StatusOK, d.Dispatch(ctx, req))
}

func (d *Dispatcher) writeEnvelope(w http.ResponseWriter, status int, resp *protocol.Response) {
	data, err := protocol.EncodeResponse(resp)
	if err != nil {
		d.logger.Error("response encode failed", "correlation_id", resp.CorrelationID, "error", err)
		status = http.StatusInternalServerError
		data, _ = protocol.EncodeResponse(protocol.Failure(resp.CorrelationID,
			protocol.KindHandlerError, "response could not be encoded"))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		d.logger.Debug("response write failed", "correlation_id", resp.CorrelationID, "error", err)
	}
}

func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}
