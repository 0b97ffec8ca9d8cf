package payment

// MethodID doubles as the gateway payment method type.
type MethodID string

const (
	MethodCard         MethodID = "card"
	MethodGCash        MethodID = "gcash"
	MethodMaya         MethodID = "paymaya"
	MethodQrPh         MethodID = "qrph"
	MethodBankTransfer MethodID = "dob"
)

type Mode string

const (
	// ModeDirect methods are captured by an in-page form.
	ModeDirect Mode = "direct"
	// ModeRedirect methods are authorized on an external page.
	ModeRedirect Mode = "redirect"
)

type Method struct {
	ID    MethodID `json:"id"`
	Mode  Mode     `json:"mode"`
	Label string   `json:"label"`
}

var catalog = []Method{
	{ID: MethodCard, Mode: ModeDirect, Label: "Credit / Debit Card"},
	{ID: MethodGCash, Mode: ModeRedirect, Label: "GCash"},
	{ID: MethodMaya, Mode: ModeRedirect, Label: "Maya"},
	{ID: MethodQrPh, Mode: ModeRedirect, Label: "QR Ph"},
	{ID: MethodBankTransfer, Mode: ModeRedirect, Label: "Online Bank Transfer"},
}

var catalogByID = func() map[MethodID]Method {
	m := make(map[MethodID]Method, len(catalog))
	for _, method := range catalog {
		m[method.ID] = method
	}
	return m
}()

// Methods returns the supported methods in display order.
func Methods() []Method {
	out := make([]Method, len(catalog))
	copy(out, catalog)
	return out
}

func LookupMethod(id MethodID) (Method, bool) {
	m, ok := catalogByID[id]
	return m, ok
}

// IsDirect reports whether id is captured in-page. Unknown ids are not direct.
func IsDirect(id MethodID) bool {
	m, ok := catalogByID[id]
	return ok && m.Mode == ModeDirect
}
