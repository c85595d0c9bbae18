package models

// Choices offered by the booking form. The server validates against the same
// lists, so changing one here changes what the API accepts.

var TimeSlots = []string{
	"9:00 AM",
	"9:30 AM",
	"10:00 AM",
	"10:30 AM",
	"11:00 AM",
	"11:30 AM",
	"12:00 PM",
	"12:30 PM",
	"1:00 PM",
	"1:30 PM",
	"2:00 PM",
	"2:30 PM",
	"3:00 PM",
	"3:30 PM",
	"4:00 PM",
	"4:30 PM",
	"5:00 PM",
}

var BudgetRanges = []string{
	"Under $500",
	"$500 - $1,500",
	"$1,500 - $4,000",
	"$4,000+",
}

var TimelineOptions = []string{
	"ASAP",
	"1-2 weeks",
	"1 month",
	"Flexible",
}

var ServiceOptions = []ServiceType{
	ServiceWebDesign,
	ServiceWebDevelopment,
	ServiceEcommerce,
	ServiceUIUXDesign,
	ServiceMaintenance,
	ServiceLandingPages,
	ServiceOther,
}

var ServiceLabels = map[ServiceType]string{
	ServiceWebDesign:      "Web Design",
	ServiceWebDevelopment: "Web Development",
	ServiceEcommerce:      "E-Commerce",
	ServiceUIUXDesign:     "UI/UX Design",
	ServiceMaintenance:    "Maintenance",
	ServiceLandingPages:   "Landing Pages",
	ServiceOther:          "Other",
}

// SourceOptions is the "How did you find us?" dropdown. Source is free text
// on the server; this list only feeds the form.
var SourceOptions = []string{
	"Google Search",
	"Social Media",
	"Referral",
	"Previous Client",
	"Other",
}

type CountryCode struct {
	Code    string `json:"code"`
	Country string `json:"country"`
}

// CountryCodes are the dial prefixes the form prepends to the phone number.
// The first entry is the default.
var CountryCodes = []CountryCode{
	{Code: "+94", Country: "Sri Lanka"},
	{Code: "+1", Country: "US"},
	{Code: "+44", Country: "UK"},
	{Code: "+91", Country: "India"},
	{Code: "+61", Country: "Australia"},
	{Code: "+971", Country: "UAE"},
	{Code: "+65", Country: "Singapore"},
	{Code: "+49", Country: "Germany"},
	{Code: "+33", Country: "France"},
	{Code: "+81", Country: "Japan"},
}

// Text length limits, in characters.
const (
	FullNameMin                = 2
	FullNameMax                = 100
	EmailMax                   = 254
	PhoneMin                   = 7
	PhoneMax                   = 20
	ConsultationDescriptionMax = 500
	ProjectDescriptionMin      = 10
	ProjectDescriptionMax      = 2000
)

// ServiceLabel returns the display name for s, falling back to the raw value.
func ServiceLabel(s ServiceType) string {
	if label, ok := ServiceLabels[s]; ok {
		return label
	}
	return string(s)
}
