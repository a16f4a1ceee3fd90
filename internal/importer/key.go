package importer

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/skillstack/internal/domain"
)

// Normalize joins the identifying fields of a goal after cleaning each part.
// Notes are left out so editing them does not make a goal look new.
func Normalize(name, resourceType, platform string) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return strings.Join(strings.Fields(p), " ")
	}

	// Newline-joined so "go" + "course" and "goc" + "ourse" stay apart.
	return strings.Join([]string{
		normalizePart(name),
		normalizePart(resourceType),
		normalizePart(platform),
	}, "\n")
}

// DraftKey returns the SHA-256 hex digest identifying a draft's goal.
func DraftKey(d domain.Draft) string {
	return hash(Normalize(d.SkillName, d.ResourceType, d.Platform))
}

// SkillKey returns the key of an existing skill, comparable with DraftKey.
func SkillKey(s domain.Skill) string {
	return hash(Normalize(s.SkillName, s.ResourceType, s.Platform))
}

func hash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum)
}
