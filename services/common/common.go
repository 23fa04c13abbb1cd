package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"parlayTracker/models"
	"parlayTracker/models/external"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrorReporter logs a failure and records it in error_logs when a database is attached.
type ErrorReporter struct {
	DB *gorm.DB
}

func (r *ErrorReporter) Report(source string, err error) {
	if err == nil {
		return
	}
	log.Printf("[%s] %v", source, err)

	if r == nil || r.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errLog := models.ErrorLog{
		Source:  source,
		Message: fmt.Sprintf("%v", err),
	}
	if dbErr := r.DB.WithContext(ctx).Create(&errLog).Error; dbErr != nil {
		log.Printf("Error recording error log: %v", dbErr)
	}
}

// BDLWrapper issues a GET against the sports API. Non-200 responses are turned into
// an error carrying the API's message when it sent one.
func BDLWrapper(ctx context.Context, client *http.Client, requestUrl string, apiKey string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestUrl, nil)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		req.Header.Add("Authorization", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		var apiErr external.BDL_ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil {
			if apiErr.Error != "" {
				return nil, errors.New(apiErr.Error)
			}
			if apiErr.Message != "" {
				return nil, errors.New(apiErr.Message)
			}
		}
		if text := http.StatusText(resp.StatusCode); text != "" {
			return nil, errors.New(text)
		}
		return nil, fmt.Errorf("request failed: %d", resp.StatusCode)
	}
	return resp, nil
}

func Contains[T comparable](s []T, e T) bool {
	for _, v := range s {
		if v == e {
			return true
		}
	}
	return false
}

// ParseAmount reads a user-entered money value. Anything unparsable, infinite or
// negative is 0.
func ParseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// NonNegative clamps a decimal amount at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// DefaultCurrencySymbol is the peso sign the tracker has always shown amounts in.
const DefaultCurrencySymbol = "₱"

// FormatMoney renders an amount with two decimals, e.g. ₱15.00 or -₱20.00.
func FormatMoney(symbol string, d decimal.Decimal) string {
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	if d.IsNegative() {
		return fmt.Sprintf("-%s%s", symbol, d.Abs().StringFixed(2))
	}
	return fmt.Sprintf("%s%s", symbol, d.StringFixed(2))
}
