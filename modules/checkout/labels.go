package checkout

import (
	"strconv"
	"time"

	"github.com/giftify/giftapi/common/model"
)

// paymentMethodLabels maps backend payment method codes to display labels.
var paymentMethodLabels = map[string]string{
	"DEPOSIT":          "지갑",
	"CARD":             "카드",
	"KAKAO_PAY":        "카카오페이",
	"NAVER_PAY":        "네이버페이",
	"TOSS_PAY":         "토스페이",
	"ACCOUNT_TRANSFER": "계좌이체",
	"BANK_TRANSFER":    "은행이체",
	"POINT":            "포인트",
}

// PaymentMethodLabel resolves a payment method code to its display label.
// Unrecognized codes pass through as-is.
func PaymentMethodLabel(code string) string {
	if label, ok := paymentMethodLabels[code]; ok {
		return label
	}
	return code
}

// FormatAmount renders an integer amount with thousands separators and
// the currency suffix, e.g. 1234567 -> "1,234,567원".
func FormatAmount(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var grouped []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, d)
	}

	out := string(grouped) + "원"
	if negative {
		out = "-" + out
	}
	return out
}

// Summary is the render model of the success phase: funding lines
// filtered from the full item list, the resolved payment label and the
// formatted total.
type Summary struct {
	OrderNumber   string
	PaymentMethod string
	PaidAt        time.Time
	Total         string
	FundingItems  []model.OrderItem
}

// Summary derives the success-page summary. ok is false until the machine
// reaches the Success phase.
func (m *Machine) Summary() (Summary, bool) {
	detail, ok := m.Order()
	if !ok || m.Phase() != PhaseSuccess {
		return Summary{}, false
	}
	return Summary{
		OrderNumber:   detail.Order.OrderNumber,
		PaymentMethod: PaymentMethodLabel(detail.Order.PaymentMethod),
		PaidAt:        detail.Order.CreatedAt,
		Total:         FormatAmount(detail.Order.TotalAmount),
		FundingItems:  detail.FundingItems(),
	}, true
}
