package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/siherrmann/wellgraph/model"
)

var (
	wellIDPattern   = regexp.MustCompile(`\b` + model.WellIDExpr)
	mnemonicPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,5}\b`)
	wordPattern     = regexp.MustCompile(`\b[A-Za-z][A-Za-z0-9]{1,5}\b`)
)

// Upper case tokens that are query words or abbreviations rather than curve mnemonics
var mnemonicStoplist = map[string]bool{
	"A": true, "AN": true, "AND": true, "ARE": true, "ALL": true, "ANY": true, "AS": true, "AT": true,
	"BY": true, "DO": true, "DOES": true, "FOR": true, "FROM": true, "HAS": true, "HOW": true,
	"I": true, "IN": true, "IS": true, "IT": true, "ME": true, "MANY": true, "OF": true, "ON": true,
	"OR": true, "THE": true, "TO": true, "WAS": true, "WHAT": true, "WHICH": true, "WHERE": true,
	"WITH": true, "LIST": true, "SHOW": true, "COUNT": true, "MAX": true, "MIN": true, "WELL": true,
	"WELLS": true, "CURVE": true, "CURVES": true, "LOG": true, "LOGS": true, "ID": true, "NO": true,
	"NOT": true, "API": true, "LAS": true, "DLIS": true, "USA": true, "US": true, "USGS": true,
	"EIA": true, "NPD": true, "OK": true, "VS": true, "THERE": true, "THAT": true, "THIS": true,
	"THEY": true, "YOU": true, "WHO": true, "WHY": true, "WHEN": true, "GIVE": true, "FIND": true,
	"TELL": true, "ABOUT": true, "EACH": true, "WERE": true, "BEEN": true, "CAN": true,
}

// Known mnemonics shorter than this must be written in upper case
const minLowerMnemonic = 4

// Known mnemonics that are also common words, recognised in upper case only
var englishWords = map[string]bool{
	"DEPTH": true, "TENS": true, "TIME": true, "TEMP": true, "RATE": true, "FLOW": true,
	"TYPE": true, "AREA": true, "ZONE": true, "BIT": true, "CASE": true, "LINE": true,
}

// EntityExtractor pulls well ids and curve mnemonics out of query text
type EntityExtractor struct {
	known map[string]bool
}

// NewEntityExtractor creates an extractor. If known mnemonics are given only those
// are recognised. Known mnemonics of four or more characters also match in lower
// case unless they are common words; otherwise any short upper case token is a
// mnemonic candidate.
func NewEntityExtractor(knownMnemonics ...string) *EntityExtractor {
	e := &EntityExtractor{}
	if len(knownMnemonics) > 0 {
		e.known = make(map[string]bool, len(knownMnemonics))
		for _, m := range knownMnemonics {
			if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
				e.known[m] = true
			}
		}
	}
	return e
}

// Extract returns the entities found in text, keyed by model.Entity* keys.
// Keys without match are omitted, an empty map is a valid result.
func (e *EntityExtractor) Extract(text string) map[string]string {
	entities := map[string]string{}

	matches := wellIDPattern.FindAllStringSubmatchIndex(text, -1)
	var wellIDs []string
	for _, m := range matches {
		id := model.CanonicalWellID(text[m[2]:m[3]], text[m[4]:m[5]], text[m[6]:m[7]])
		if !contains(wellIDs, id) {
			wellIDs = append(wellIDs, id)
		}
	}
	if len(wellIDs) > 0 {
		entities[model.EntityWellID] = wellIDs[0]
	}
	if len(wellIDs) > 1 {
		entities[model.EntityOtherWellID] = wellIDs[1]
	}

	// Blank the well ids so their suffixes are not read as mnemonics
	masked := []byte(text)
	for _, m := range matches {
		for i := m[0]; i < m[1]; i++ {
			masked[i] = ' '
		}
	}

	if mnemonic, ok := e.mnemonic(string(masked)); ok {
		entities[model.EntityCurveMnemonic] = mnemonic
	}

	return entities
}

func (e *EntityExtractor) mnemonic(text string) (string, bool) {
	if e.known != nil {
		for _, word := range wordPattern.FindAllString(text, -1) {
			upper := strings.ToUpper(word)
			if !e.known[upper] || mnemonicStoplist[upper] {
				continue
			}
			if word == upper || (len(word) >= minLowerMnemonic && !englishWords[upper]) {
				return upper, true
			}
		}
		return "", false
	}

	for _, token := range mnemonicPattern.FindAllString(text, -1) {
		if !mnemonicStoplist[token] {
			return token, true
		}
	}
	return "", false
}

// NormalizeWellID returns the canonical form of a well id.
// 15/9-13, 15_9-13 and 15/09-13 all become 15_9-13.
func NormalizeWellID(raw string) (string, bool) {
	return model.NormalizeWellID(raw)
}

// WellNodeID returns the graph node id of a canonical well id
func WellNodeID(wellID string) string {
	return "well:" + wellID
}

// CurveNodeID returns the graph node id of a curve measured in a well
func CurveNodeID(wellID string, mnemonic string) string {
	return fmt.Sprintf("curve:%s:%s", wellID, strings.ToUpper(mnemonic))
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
