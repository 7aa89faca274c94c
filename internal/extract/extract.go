// Package extract pulls caller details out of user-side transcript turns.
// Matchers are pure string functions; observing the same utterance twice
// leaves the accumulator unchanged.
package extract

import "strings"

// Entities is the bag of caller details collected over a call.
type Entities struct {
	Email        string
	Name         string
	BusinessType string
	CompanyName  string
}

// Accumulator folds transcript turns into Entities. It is not safe for
// concurrent use; the bridge feeds it from a single goroutine.
type Accumulator struct {
	Entities Entities

	emailFragments   []string
	companyFragments []string
}

const maxFragments = 3

// Observe processes one user utterance. Assistant turns must not be fed
// here: the agent repeating a misheard email back would otherwise
// overwrite the caller's real one.
func (a *Accumulator) Observe(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	a.observeEmail(text)
	a.observeBusinessType(text)
	a.observeName(text)
	a.observeCompany(text)
}

// pushFragment appends to a bounded fragment buffer, dropping consecutive
// repeats so a re-delivered transcript does not grow it.
func pushFragment(buf []string, frag string) []string {
	if len(buf) > 0 && buf[len(buf)-1] == frag {
		return buf
	}
	buf = append(buf, frag)
	if len(buf) > maxFragments {
		buf = buf[len(buf)-maxFragments:]
	}
	return buf
}
