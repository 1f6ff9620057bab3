package web

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"

    "github.com/rs/zerolog"

    "github.com/local/mediainsight/internal/classify"
    "github.com/local/mediainsight/internal/dispatcher"
    "github.com/local/mediainsight/internal/storage"
)

type errorBody struct {
    Error             string          `json:"error"`
    Kind              string          `json:"kind"`
    RetryAfterSeconds *int            `json:"retryAfterSeconds,omitempty"`
    AvailableModels   json.RawMessage `json:"availableModels,omitempty"`
    ListingError      string          `json:"listingError,omitempty"`
}

func writeError(wr http.ResponseWriter, status int, msg, kind string) {
    writeJSON(wr, status, errorBody{Error: msg, Kind: kind})
}

// writeFailure maps dispatcher and storage errors onto status codes. Quota
// errors with a known delay also set Retry-After.
func writeFailure(wr http.ResponseWriter, r *http.Request, err error) {
    var (
        ce   *classify.ClassifiedError
        verr *dispatcher.ValidationError
        uerr *dispatcher.UnsupportedMediaError
    )
    switch {
    case errors.As(err, &ce):
        if ce.RetryAfterSeconds != nil {
            wr.Header().Set("Retry-After", strconv.Itoa(*ce.RetryAfterSeconds))
        }
        writeJSON(wr, ce.HTTPStatus(), errorBody{
            Error:             ce.Message,
            Kind:              string(ce.Kind),
            RetryAfterSeconds: ce.RetryAfterSeconds,
            AvailableModels:   ce.AvailableModels,
            ListingError:      ce.ListingError,
        })
    case errors.As(err, &verr):
        writeError(wr, http.StatusBadRequest, verr.Message, "invalid_request")
    case errors.As(err, &uerr):
        writeError(wr, http.StatusUnsupportedMediaType, uerr.Error(), "unsupported_media")
    case errors.Is(err, storage.ErrNotFound):
        writeError(wr, http.StatusNotFound, "media not found", "not_found")
    case errors.Is(err, storage.ErrInvalidName):
        writeError(wr, http.StatusBadRequest, "invalid media name", "invalid_request")
    default:
        zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
        writeError(wr, http.StatusInternalServerError, err.Error(), string(classify.KindGeneric))
    }
}
