// Copyright 2026 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type intRecord struct {
	CreatedBy string `json:"created_by"`
}

type intItem struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

type intOrder struct {
	intRecord
	Reference string    `json:"reference"`
	Email     string    `json:"email"`
	Items     []intItem `json:"items"`
	Coupon    string    `json:"coupon"`
	Express   bool      `json:"express"`
	CardCVC   string    `json:"card_cvc"`
}

// couponDirectory simulates a remote lookup of active coupon codes.
type couponDirectory struct {
	active map[string]bool
	delay  time.Duration
}

func (c couponDirectory) Evaluate(ctx context.Context, in Input) (bool, error) {
	return c.EvaluateAsync(ctx, in).Await(ctx)
}

func (c couponDirectory) EvaluateAsync(ctx context.Context, in Input) *Outcome {
	return GoOutcome(func() (bool, error) {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}

		code, ok := in.Value.(string)
		if !ok {
			return false, fmt.Errorf("%w: coupon code must be a string", ErrBadParams)
		}
		if code == "" {
			return true, nil
		}

		return c.active[code], nil
	})
}

func (couponDirectory) DefaultMessage(in Input) string {
	return fmt.Sprintf("coupon %v is not active", in.Value)
}

const orderRuleSet = `
version: 1
types:
  - type: Record
    fields:
      - field: CreatedBy
        rules:
          - rule: required
            groups: [create]
  - type: Item
    fields:
      - field: SKU
        rules:
          - rule: required
          - rule: matches
            pattern: '^[A-Z]{3}-\d{4}$'
      - field: Qty
        rules:
          - rule: min
            bound: 1
  - type: Order
    extends: Record
    fields:
      - field: Reference
        rules:
          - rule: required
          - rule: length
            min: 8
            max: 8
      - field: Email
        rules:
          - rule: format
            format: email
      - field: Items
        rules:
          - rule: nested
            each: true
      - field: Coupon
        rules:
          - rule: custom
            name: coupon_active
            when: self.Express
      - field: CardCVC
        rules:
          - rule: matches
            pattern: '^\d{3}$'
            message: card verification code must be three digits
`

func newOrderValidator(t *testing.T) *Validator {
	t.Helper()

	rs, err := ParseRuleSet([]byte(orderRuleSet))
	require.NoError(t, err)

	reg := NewRegistry()
	require.NoError(t, rs.Apply(reg, map[string]any{
		"Record": intRecord{},
		"Item":   intItem{},
		"Order":  intOrder{},
	}))

	cat := NewCatalog()
	require.NoError(t, cat.Register("coupon_active", couponDirectory{
		active: map[string]bool{"SAVE10": true},
		delay:  5 * time.Millisecond,
	}))

	return MustNew(WithRegistry(reg), WithCatalog(cat))
}

func TestOrderWorkflow_Create(t *testing.T) {
	t.Parallel()

	v := newOrderValidator(t)
	ctx := context.Background()

	good := intOrder{
		intRecord: intRecord{CreatedBy: "svc-checkout"},
		Reference: "ORD-1234",
		Email:     "ops@example.com",
		Items:     []intItem{{SKU: "ABC-1234", Qty: 2}},
		Express:   true,
		Coupon:    "SAVE10",
		CardCVC:   "123",
	}
	require.NoError(t, v.Validate(ctx, good, WithGroups("create")))

	bad := good
	bad.Items = []intItem{{SKU: "ABC-1234", Qty: 2}, {SKU: "bad", Qty: 0}}
	bad.Coupon = "EXPIRED"

	var verr *Error
	require.ErrorAs(t, v.Validate(ctx, bad, WithGroups("create")), &verr)

	flat := verr.Flatten()
	require.Len(t, flat, 3)
	assert.Equal(t, "items.1.sku", flat[0].Path)
	assert.Equal(t, "items.1.qty", flat[1].Path)
	assert.Equal(t, "coupon", flat[2].Path, "async result keeps registration order")
	assert.Equal(t, "coupon EXPIRED is not active", flat[2].Message)
}

func TestOrderWorkflow_GroupScoping(t *testing.T) {
	t.Parallel()

	v := newOrderValidator(t)
	ctx := context.Background()

	// CreatedBy is only demanded by the create group, so an update
	// call ignores it.
	order := intOrder{
		Reference: "ORD-1234",
		Email:     "ops@example.com",
		CardCVC:   "123",
	}
	require.NoError(t, v.Validate(ctx, order, WithGroups("update")))

	var verr *Error
	require.ErrorAs(t, v.Validate(ctx, order, WithGroups("create")), &verr)
	require.Equal(t, 1, verr.Count())
	assert.True(t, verr.At("created_by").Violations.Has("required"))
}

func TestOrderWorkflow_Patch(t *testing.T) {
	t.Parallel()

	v := newOrderValidator(t)
	ctx := context.Background()

	body := []byte(`{"email": "not-an-email", "items": [{"sku": "XYZ-9999", "qty": 1}]}`)

	pm, err := ComputePresence(body)
	require.NoError(t, err)

	var patch intOrder
	require.NoError(t, json.Unmarshal(body, &patch))

	var verr *Error
	require.ErrorAs(t, v.Validate(ctx, patch, WithSkipMissing(true), WithPresence(pm)), &verr)

	// Absent fields stay quiet; only the malformed email in the request
	// body is reported.
	flat := verr.Flatten()
	require.Len(t, flat, 1)
	assert.Equal(t, "email", flat[0].Path)
	assert.Equal(t, "must be a valid email address", flat[0].Message)
}

func TestOrderWorkflow_StopFirstAndRedaction(t *testing.T) {
	t.Parallel()

	v := newOrderValidator(t)
	ctx := context.Background()

	bad := intOrder{
		Reference: "ORD-1234",
		Email:     "ops@example.com",
		CardCVC:   "12",
	}

	var verr *Error
	require.ErrorAs(t, v.Validate(ctx, bad, WithRedactor(func(path string) bool {
		return path == "card_cvc"
	})), &verr)

	node := verr.At("card_cvc")
	require.NotNil(t, node)
	assert.Equal(t, "***REDACTED***", node.Value)
	assert.Equal(t, "card verification code must be three digits", node.Violations[0].Message)

	// Same validator, narrowed per call: first failure only.
	bad.Reference = ""
	require.ErrorAs(t, v.Validate(ctx, bad, WithStopAtFirstError(true)), &verr)
	assert.Equal(t, 1, verr.Count())
	assert.Equal(t, "reference", verr.Properties[0].Field)
}

func TestOrderWorkflow_Async(t *testing.T) {
	t.Parallel()

	v := newOrderValidator(t)

	bad := intOrder{
		Reference: "short",
		Email:     "ops@example.com",
		CardCVC:   "123",
	}

	fut := v.ValidateAsync(context.Background(), bad)

	select {
	case <-fut.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("validation future never completed")
	}

	err := fut.Await()
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.At("reference").Violations.Has("length"))
}
