package extract

import (
	"regexp"
	"strings"
)

var nameCueRe = regexp.MustCompile(`(?i)(?:my name is|my name's|i'm|i am|this is|it's|speaking with)\s+([a-z]+(?:\s+[a-z]+)?)`)

var nameBareRe = regexp.MustCompile(`(?i)^([a-z]+(?:\s+[a-z]+)?)[.,!?]?$`)

// Words a short confirmation shares with a short name.
var nameStoplist = map[string]bool{
	"Sure": true, "Yes": true, "Yeah": true, "Okay": true, "Great": true,
	"Perfect": true, "Hello": true, "Hi": true, "Hey": true, "Thanks": true,
	"Thank": true, "Thank You": true, "No": true, "Bye": true, "Goodbye": true,
}

// Verbs that follow a cue phrase without being a name ("I'm calling from...").
var nameFirstWordStop = map[string]bool{
	"Calling": true, "Called": true, "From": true, "Speaking": true,
	"Going": true, "Trying": true, "Just": true, "Here": true,
}

func (a *Accumulator) observeName(text string) {
	// Name is captured once; later matches are usually the agent's
	// confirmation being echoed back.
	if a.Entities.Name != "" {
		return
	}
	for _, re := range []*regexp.Regexp{nameCueRe, nameBareRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := titleCase(strings.TrimSpace(m[1]))
		if len(name) < 2 || nameStoplist[name] {
			continue
		}
		if nameFirstWordStop[strings.Fields(name)[0]] {
			continue
		}
		a.Entities.Name = name
		return
	}
}

var businessKeywords = []string{
	"salon", "shop", "gym", "restaurant", "cafe", "bakery", "hotel", "motel",
	"spa", "barbershop", "pharmacy", "clinic", "hospital", "practice",
	"school", "daycare", "library", "bookstore", "boutique", "store",
	"bar", "pub", "nightclub", "theater", "theatre", "museum", "gallery",
	"garage", "dealership", "workshop", "factory", "warehouse", "studio",
	"office", "firm", "agency", "center",
}

var businessAdjectiveStoplist = map[string]bool{
	"a": true, "an": true, "the": true, "my": true, "our": true, "your": true,
	"this": true, "that": true, "have": true, "own": true, "run": true,
}

var businessPhraseRes = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(businessKeywords))
	for _, kw := range businessKeywords {
		out[kw] = regexp.MustCompile(`\b([a-z]+)\s+` + kw + `\b`)
	}
	return out
}()

var punctRe = regexp.MustCompile(`[.,!?;:]`)

func (a *Accumulator) observeBusinessType(text string) {
	if a.Entities.BusinessType != "" {
		return
	}
	lower := strings.ToLower(text)

	// "[adjective] [keyword]" beats a bare keyword: "dental office" over "office".
	for _, kw := range businessKeywords {
		m := businessPhraseRes[kw].FindStringSubmatch(lower)
		if m == nil || businessAdjectiveStoplist[m[1]] {
			continue
		}
		a.Entities.BusinessType = titleCase(m[1] + " " + kw)
		return
	}

	words := strings.Fields(punctRe.ReplaceAllString(lower, ""))
	for _, kw := range businessKeywords {
		for _, w := range words {
			if w == kw {
				a.Entities.BusinessType = titleCase(kw)
				return
			}
		}
	}
}

var companyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:calling from|from)\s+([A-Z][A-Za-z0-9\s&']{2,30}?)(?:\.|,|!|\s+and\s|$)`),
	regexp.MustCompile(`(?i)(?:shop|salon|business|company|practice|office|firm|clinic|studio|center)(?:'s)?\s+(?:name\s+)?is\s+([A-Za-z0-9\s&']{2,30}?)(?:\.|,|\s+and\s|$)`),
	regexp.MustCompile(`(?i)(?:it's|its)\s+called\s+([A-Za-z0-9\s&']{2,30}?)(?:\.|,|\s+and\s|$)`),
	regexp.MustCompile(`(?i)(?:the\s+)?name\s+(?:of\s+my\s+(?:[a-z]+\s+)?(?:shop|salon|business|company)\s+)?is\s+([A-Za-z0-9\s&']{2,30}?)(?:\.|,|\s+and\s|$)`),
	regexp.MustCompile(`(?:demo\s+for|set\s+up\s+for|help|for)\s+([A-Z][A-Za-z0-9\s&']{2,30}?)(?:\.|,|!|\s+and\s|$)`),
	// Weakest: a capitalized phrase right before "and <email>", as in
	// "The Ink Shop and tbone7777@hotmail.com".
	regexp.MustCompile(`([A-Z][A-Za-z0-9\s&']{2,30}?)\s+and\s+[A-Za-z0-9._%+\-]+@`),
}

var companyStoplist = []string{
	"your", "my", "the", "a", "an", "there", "here", "you", "we", "they",
	"our", "that", "this", "it", "something", "my email", "email address",
	"my phone", "phone number", "my number",
}

var companyFragmentFiller = map[string]bool{
	"yes": true, "no": true, "thank you": true, "thanks": true, "bye": true,
	"goodbye": true, "hello": true, "hi": true, "hey": true, "okay": true,
	"ok": true, "sure": true, "great": true, "perfect": true, "right": true,
	"correct": true, "exactly": true, "sorry": true, "pardon": true,
	"excuse me": true, "what": true, "got it": true, "i see": true,
	"it is": true, "it's": true, "that is": true, "that's": true,
}

var (
	companyLeadingArticleRe = regexp.MustCompile(`(?i)^(?:the|a|an)\s+`)
	companyTrailingVerbRe   = regexp.MustCompile(`(?i)\s+(?:is|are|and)\.?$`)
)

var personalNameCueRe = regexp.MustCompile(`(?i)\bmy name(?:'s| is)\b`)

func (a *Accumulator) observeCompany(text string) {
	for i, re := range companyPatterns {
		// "name is" also appears in "my name is Tony"; that form belongs to
		// the name matcher.
		if i == 3 && personalNameCueRe.MatchString(text) {
			continue
		}
		// "I'm Tony and tony@x.com" is a person, not a company.
		if i == 5 && nameCueRe.MatchString(text) {
			continue
		}
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if len(candidate) < 2 || companyExcluded(candidate) {
			continue
		}
		// Always overwrite; callers restate their company name to correct us.
		a.Entities.CompanyName = candidate
		a.companyFragments = nil
		return
	}

	if a.Entities.CompanyName != "" {
		return
	}
	a.bufferCompanyFragment(text)
}

func companyExcluded(candidate string) bool {
	lower := strings.ToLower(candidate)
	for _, bad := range companyStoplist {
		if lower == bad {
			return true
		}
	}
	return false
}

// bufferCompanyFragment collects short capitalized utterances that may be a
// business name split across turns ("The Ink", then "Factory").
func (a *Accumulator) bufferCompanyFragment(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed[0] < 'A' || trimmed[0] > 'Z' {
		return
	}
	if len(strings.Fields(trimmed)) > 3 {
		return
	}
	normalized := strings.ToLower(punctRe.ReplaceAllString(trimmed, ""))
	if companyFragmentFiller[normalized] || emailCueRe.MatchString(normalized) {
		return
	}

	a.companyFragments = pushFragment(a.companyFragments, trimmed)
	if len(a.companyFragments) < 2 {
		return
	}
	combined := strings.Join(a.companyFragments, " ")
	combined = companyLeadingArticleRe.ReplaceAllString(combined, "")
	combined = companyTrailingVerbRe.ReplaceAllString(combined, "")
	if len(combined) > 3 {
		a.Entities.CompanyName = titleCase(combined)
		a.companyFragments = nil
	}
}

// titleCase capitalizes each word; strings.Title is deprecated and the
// x/text caser is overkill for short ASCII phrases.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
