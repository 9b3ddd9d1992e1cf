package azure

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Credential is one Azure subscription key bound to its service region.
type Credential struct {
	Key    string
	Region string
}

// ParseCredential parses a "{key},{region}" pair as configured.
func ParseCredential(s string) (Credential, error) {
	key, region, ok := strings.Cut(s, ",")
	key, region = strings.TrimSpace(key), strings.TrimSpace(region)
	if !ok || key == "" || region == "" {
		return Credential{}, fmt.Errorf("malformed subscription credential %q, want \"key,region\"", s)
	}
	if !ValidRegion(region) {
		return Credential{}, fmt.Errorf("subscription credential has unknown region %q", region)
	}
	return Credential{Key: key, Region: region}, nil
}

// ParseCredentials parses the configured credential list, returning the valid
// entries and one error per rejected entry.
func ParseCredentials(entries []string) ([]Credential, []error) {
	var (
		creds []Credential
		errs  []error
	)
	for _, e := range entries {
		if strings.TrimSpace(e) == "" {
			continue
		}
		c, err := ParseCredential(e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		creds = append(creds, c)
	}
	return creds, errs
}

// Hash is a stable identifier for pool keying and log correlation that does
// not expose the key itself.
func (c Credential) Hash() string {
	h := fnv.New64a()
	h.Write([]byte(c.Key))
	h.Write([]byte{0})
	h.Write([]byte(c.Region))
	return fmt.Sprintf("%016x", h.Sum64())
}
