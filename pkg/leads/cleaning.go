package leads

import (
	"context"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

var emailShape = regexp.MustCompile(`^\S+@\S+\.\S+$`)

var placeholderPrefixes = []string{
	"test@",
	"asdf@",
	"example@",
	"qwerty@",
	"none@",
	"noemail@",
	"user@",
}

// StandardizeName lower-cases a name and capitalizes the first letter of
// every space separated token. "SARAH johnson" becomes "Sarah Johnson".
func StandardizeName(name string) string {
	if name == "" {
		return ""
	}

	tokens := strings.Split(strings.ToLower(name), " ")
	for i, tok := range tokens {
		if tok == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(tok)
		tokens[i] = string(unicode.ToUpper(r)) + tok[size:]
	}
	return strings.TrimSpace(strings.Join(tokens, " "))
}

// IsFakeEmail applies the local placeholder heuristic
func IsFakeEmail(email string) bool {
	e := strings.ToLower(email)

	if !emailShape.MatchString(e) {
		return true
	}

	for _, p := range placeholderPrefixes {
		if strings.HasPrefix(e, p) {
			return true
		}
	}

	local := e[:strings.Index(e, "@")]
	return utf8.RuneCountInString(local) > 3 && repeatedWordRune(local)
}

// repeatedWordRune reports whether s is one word character repeated
func repeatedWordRune(s string) bool {
	first, _ := utf8.DecodeRuneInString(s)
	if !isWordRune(first) {
		return false
	}
	for _, r := range s {
		if r != first {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

// DigitsOnly strips everything but ASCII digits
func DigitsOnly(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if '0' <= r && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EmailVerifier is a remote deliverability check
type EmailVerifier interface {
	Verify(ctx context.Context, email string) (bool, error)
}

// EmailRejected runs the heuristic and then, only when it passes, the remote
// verifier. A verifier error keeps the heuristic result. An empty address is
// "no email on file" and is never rejected.
func EmailRejected(ctx context.Context, verifier EmailVerifier, email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	if IsFakeEmail(email) {
		return true
	}
	if verifier == nil {
		return false
	}

	ok, err := verifier.Verify(ctx, email)
	if err != nil {
		return false
	}
	return !ok
}

// AnalyzeHealth compares one lead against the whole collection
func AnalyzeHealth(lead Lead, all []Lead) Health {
	phone := DigitsOnly(lead.Phone)
	email := strings.ToLower(lead.Email)

	dupes := []string{}
	for _, other := range all {
		if other.ID == lead.ID {
			continue
		}
		if matches(phone, email, other) {
			dupes = append(dupes, other.ID)
		}
	}

	return Health{
		IsDuplicate:          len(dupes) > 0,
		DuplicateIDs:         dupes,
		IsInvalidEmail:       invalidEmail(lead),
		NeedsStandardization: lead.Name != StandardizeName(lead.Name),
	}
}

func matches(phone, email string, other Lead) bool {
	if phone != "" && phone == DigitsOnly(other.Phone) {
		return true
	}
	return email != "" && email == strings.ToLower(other.Email)
}

// invalidEmail reports a bad address on file. A lead with no email at all is
// not flagged: phone-only leads arrive from inbound webhooks and syncs.
func invalidEmail(lead Lead) bool {
	if lead.Email == "" {
		return false
	}
	return lead.EmailRejected || IsFakeEmail(lead.Email)
}

// AnalyzeAll computes health for every lead using phone and email indexes.
// Duplicate ids keep the collection order.
func AnalyzeAll(all []Lead) map[string]Health {
	byPhone := make(map[string][]int)
	byEmail := make(map[string][]int)
	for i, l := range all {
		if p := DigitsOnly(l.Phone); p != "" {
			byPhone[p] = append(byPhone[p], i)
		}
		if e := strings.ToLower(l.Email); e != "" {
			byEmail[e] = append(byEmail[e], i)
		}
	}

	out := make(map[string]Health, len(all))
	for i, l := range all {
		seen := make(map[int]bool)
		for _, j := range byPhone[DigitsOnly(l.Phone)] {
			seen[j] = true
		}
		if e := strings.ToLower(l.Email); e != "" {
			for _, j := range byEmail[e] {
				seen[j] = true
			}
		}

		idx := make([]int, 0, len(seen))
		for j := range seen {
			if j != i && all[j].ID != l.ID {
				idx = append(idx, j)
			}
		}
		slices.Sort(idx)

		dupes := make([]string, 0, len(idx))
		for _, j := range idx {
			dupes = append(dupes, all[j].ID)
		}

		out[l.ID] = Health{
			IsDuplicate:          len(dupes) > 0,
			DuplicateIDs:         dupes,
			IsInvalidEmail:       invalidEmail(l),
			NeedsStandardization: l.Name != StandardizeName(l.Name),
		}
	}
	return out
}
