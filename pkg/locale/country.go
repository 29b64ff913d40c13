package locale

type Country struct {
	Code        string // ISO 3166-1 alpha-2, as understood by libphonenumber
	Name        string
	CallingCode string
}

// Countries lists where listings are operated, in the order local numbers
// written without a calling code are tried.
var Countries = []Country{
	{Code: "IN", Name: "India", CallingCode: "+91"},
	{Code: "US", Name: "United States", CallingCode: "+1"},
}

// PhoneRegions returns the region codes of Countries in order.
func PhoneRegions() []string {
	regions := make([]string, len(Countries))
	for i, c := range Countries {
		regions[i] = c.Code
	}
	return regions
}
