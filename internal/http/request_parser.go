package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"financetrack/internal/core"
)

const maxBodyBytes = 64 << 10

// errBadRequest marks input that could not be decoded at all, as opposed
// to input that decoded but failed validation.
var errBadRequest = errors.New("bad request")

// parsePreferencesPatch reads a partial preferences update from a JSON body
// or a submitted form. Only fields present in the request are set.
func parsePreferencesPatch(w http.ResponseWriter, r *http.Request) (core.PreferencesPatch, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var patch core.PreferencesPatch
	if isJSONBody(r) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&patch); err != nil {
			return patch, fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return patch, fmt.Errorf("%w: unexpected data after JSON body", errBadRequest)
		}
		return patch, nil
	}

	if err := r.ParseForm(); err != nil {
		return patch, fmt.Errorf("%w: invalid form: %v", errBadRequest, err)
	}
	form := r.PostForm

	patch.Currency = formString(form, "currency")
	patch.DateFormat = formString(form, "dateFormat")

	var err error
	if patch.Notifications, err = formBool(form, "notifications"); err != nil {
		return patch, err
	}
	if patch.EmailAlerts, err = formBool(form, "emailAlerts"); err != nil {
		return patch, err
	}
	if patch.BudgetAlerts, err = formBool(form, "budgetAlerts"); err != nil {
		return patch, err
	}
	return patch, nil
}

func formString(form url.Values, key string) *string {
	if !form.Has(key) {
		return nil
	}
	v := sanitizeInput(form.Get(key))
	return &v
}

// formBool reads a checkbox. The settings form posts a hidden "false"
// before each checkbox, so the last value wins.
func formBool(form url.Values, key string) (*bool, error) {
	values := form[key]
	if len(values) == 0 {
		return nil, nil
	}
	b, err := strconv.ParseBool(sanitizeInput(values[len(values)-1]))
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", errBadRequest, key)
	}
	return &b, nil
}
