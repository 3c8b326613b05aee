package testutil

// Fixed identifiers for deterministic testing.
const (
	TestCustomerID      = "CUST-50001"
	TestOtherCustomerID = "CUST-50002"
)

// NumericalColumns and CategoricalColumns mirror configs/feature_schema.yaml.
var (
	NumericalColumns = []string{
		"Tenure", "CityTier", "WarehouseToHome", "HourSpendOnApp",
		"NumberOfDeviceRegistered", "SatisfactionScore", "NumberOfAddress",
		"Complain", "OrderAmountHikeFromlastYear", "CouponUsed", "OrderCount",
		"DaySinceLastOrder", "CashbackAmount",
	}
	CategoricalColumns = []string{
		"PreferredLoginDevice", "PreferredPaymentMode", "Gender",
		"PreferedOrderCat", "MaritalStatus",
	}
)

// DemoCustomer returns the reference customer record. The shipped model
// scores it as STAY with a medium churn risk.
func DemoCustomer() map[string]any {
	return map[string]any{
		"Tenure":                      9.0,
		"CityTier":                    1,
		"WarehouseToHome":             5.0,
		"HourSpendOnApp":              4.0,
		"NumberOfDeviceRegistered":    4,
		"SatisfactionScore":           4,
		"NumberOfAddress":             3,
		"Complain":                    1,
		"OrderAmountHikeFromlastYear": 3.0,
		"CouponUsed":                  3,
		"OrderCount":                  2,
		"DaySinceLastOrder":           3,
		"CashbackAmount":              43.0,
		"PreferredLoginDevice":        "Phone",
		"PreferredPaymentMode":        "Debit Card",
		"Gender":                      "Male",
		"PreferedOrderCat":            "Fashion",
		"MaritalStatus":               "Married",
	}
}
