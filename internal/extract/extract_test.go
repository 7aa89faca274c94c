package extract

import "testing"

func TestValidateEmail(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"john@acme.com", true},
		{"c@d.com", true},
		{"user+tag@domain.co.uk", true},
		{"", false},
		{"no-at-sign.com", false},
		{"two@@acme.com", false},
		{"a@b@c.com", false},
		{"john@nodot", false},
		{"john@.com", false},
	}
	for _, tc := range cases {
		if got := ValidateEmail(tc.email); got != tc.want {
			t.Fatalf("ValidateEmail(%q) = %v, want %v", tc.email, got, tc.want)
		}
	}
}

func TestNormalizeSpokenEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"John@Acme.COM", "john@acme.com"},
		{"john at acme dot com", "john@acme.com"},
		{"john @ acme . com", "john@acme.com"},
	}
	for _, tc := range cases {
		if got := NormalizeSpokenEmail(tc.in); got != tc.want {
			t.Fatalf("NormalizeSpokenEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestObserveDirectEmail(t *testing.T) {
	var a Accumulator
	a.Observe("my email is john@acme.com")
	if a.Entities.Email != "john@acme.com" {
		t.Fatalf("expected john@acme.com, got %q", a.Entities.Email)
	}
}

func TestObserveSpokenEmail(t *testing.T) {
	var a Accumulator
	a.Observe("it's john at acme dot com")
	if a.Entities.Email != "john@acme.com" {
		t.Fatalf("expected john@acme.com, got %q", a.Entities.Email)
	}
}

func TestObserveSpokenEmailTwoPartTLD(t *testing.T) {
	var a Accumulator
	a.Observe("jane at company dot co dot uk")
	if a.Entities.Email != "jane@company.co.uk" {
		t.Fatalf("expected jane@company.co.uk, got %q", a.Entities.Email)
	}
}

func TestObserveSpokenEmailNameAndDigits(t *testing.T) {
	var a Accumulator
	a.Observe("t-bone 7777 at hotmail dot com")
	if a.Entities.Email != "tbone7777@hotmail.com" {
		t.Fatalf("expected tbone7777@hotmail.com, got %q", a.Entities.Email)
	}
}

func TestObserveEmailFragmentsAcrossTurns(t *testing.T) {
	var a Accumulator
	a.Observe("t-bone")
	if a.Entities.Email != "" {
		t.Fatalf("fragment alone should not capture, got %q", a.Entities.Email)
	}
	a.Observe("7777 at hotmail dot com")
	if a.Entities.Email != "tbone7777@hotmail.com" {
		t.Fatalf("expected tbone7777@hotmail.com, got %q", a.Entities.Email)
	}
}

func TestObserveEmailCorrectionWins(t *testing.T) {
	var a Accumulator
	a.Observe("my email is a@b.com")
	a.Observe("no, actually it's c@d.com")
	if a.Entities.Email != "c@d.com" {
		t.Fatalf("expected correction c@d.com to win, got %q", a.Entities.Email)
	}
}

func TestObserveIsIdempotent(t *testing.T) {
	var a Accumulator
	a.Observe("t-bone")
	a.Observe("t-bone")
	a.Observe("t-bone")
	a.Observe("t-bone")
	if len(a.emailFragments) != 1 {
		t.Fatalf("repeated utterance should not grow fragments, got %d", len(a.emailFragments))
	}

	a.Observe("my email is john@acme.com")
	before := a.Entities
	a.Observe("my email is john@acme.com")
	if a.Entities != before {
		t.Fatalf("re-observing should not change entities: %+v vs %+v", a.Entities, before)
	}
}

func TestObserveInvalidEmailRejected(t *testing.T) {
	var a Accumulator
	a.Observe("reach me at localhost")
	if a.Entities.Email != "" {
		t.Fatalf("expected no email, got %q", a.Entities.Email)
	}
}

func TestObserveNameCuePhrases(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My name is Tony Vazquez", "Tony Vazquez"},
		{"I'm Tony", "Tony"},
		{"This is Sarah", "Sarah"},
		{"Tony.", "Tony"},
	}
	for _, tc := range cases {
		var a Accumulator
		a.Observe(tc.in)
		if a.Entities.Name != tc.want {
			t.Fatalf("Observe(%q): name = %q, want %q", tc.in, a.Entities.Name, tc.want)
		}
	}
}

func TestObserveNameStoplist(t *testing.T) {
	var a Accumulator
	a.Observe("Sure")
	a.Observe("Okay.")
	if a.Entities.Name != "" {
		t.Fatalf("stoplist words must not become names, got %q", a.Entities.Name)
	}
}

func TestObserveNameCapturedOnce(t *testing.T) {
	var a Accumulator
	a.Observe("My name is Tony")
	a.Observe("My name is Mike")
	if a.Entities.Name != "Tony" {
		t.Fatalf("first captured name should stick, got %q", a.Entities.Name)
	}
}

func TestObserveBusinessTypePhrase(t *testing.T) {
	var a Accumulator
	a.Observe("I run a dental office downtown")
	if a.Entities.BusinessType != "Dental Office" {
		t.Fatalf("expected Dental Office, got %q", a.Entities.BusinessType)
	}
}

func TestObserveBusinessTypeBareKeyword(t *testing.T) {
	var a Accumulator
	a.Observe("I have a gym.")
	if a.Entities.BusinessType != "Gym" {
		t.Fatalf("expected Gym, got %q", a.Entities.BusinessType)
	}
}

func TestObserveBusinessTypeArticleNotAdjective(t *testing.T) {
	var a Accumulator
	a.Observe("the salon is busy")
	if a.Entities.BusinessType != "Salon" {
		t.Fatalf("expected bare Salon, got %q", a.Entities.BusinessType)
	}
}

func TestObserveCompanyCallingFrom(t *testing.T) {
	var a Accumulator
	a.Observe("Hi, I'm calling from Yoda Yoga")
	if a.Entities.CompanyName != "Yoda Yoga" {
		t.Fatalf("expected Yoda Yoga, got %q", a.Entities.CompanyName)
	}
}

func TestObserveCompanyItsCalled(t *testing.T) {
	var a Accumulator
	a.Observe("it's called Cutz")
	if a.Entities.CompanyName != "Cutz" {
		t.Fatalf("expected Cutz, got %q", a.Entities.CompanyName)
	}
}

func TestObserveCompanyUpdates(t *testing.T) {
	var a Accumulator
	a.Observe("I'm calling from Yoda Yoga")
	a.Observe("sorry, it's called Yoda Yoga Studio")
	if a.Entities.CompanyName != "Yoda Yoga Studio" {
		t.Fatalf("expected update to win, got %q", a.Entities.CompanyName)
	}
}

func TestObserveCompanyBeforeEmail(t *testing.T) {
	var a Accumulator
	a.Observe("The Ink Shop and tbone7777@hotmail.com")
	if a.Entities.CompanyName != "The Ink Shop" {
		t.Fatalf("expected The Ink Shop, got %q", a.Entities.CompanyName)
	}
	if a.Entities.Email != "tbone7777@hotmail.com" {
		t.Fatalf("expected email captured too, got %q", a.Entities.Email)
	}
}

func TestObserveCompanyBeforeEmailSkipsPersonIntroduction(t *testing.T) {
	var a Accumulator
	a.Observe("I'm Tony and tony@hotmail.com")
	if a.Entities.CompanyName != "" {
		t.Fatalf("a person introducing themselves is not a company, got %q", a.Entities.CompanyName)
	}
}

func TestObserveCompanyNameIsNotPersonalName(t *testing.T) {
	var a Accumulator
	a.Observe("My name is Tony")
	if a.Entities.CompanyName != "" {
		t.Fatalf("personal name must not become company, got %q", a.Entities.CompanyName)
	}
}

func TestObserveNeverPanicsOnJunk(t *testing.T) {
	inputs := []string{
		"", "   ", "@@@@", "at at at dot dot", "1234567890",
		"!!!", "a", "@.", "dot com dot com dot com",
	}
	var a Accumulator
	for _, in := range inputs {
		a.Observe(in)
	}
}
