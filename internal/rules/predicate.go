package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// predicate evaluates one or more clauses (joined by "&&") against Attrs.
// An empty predicate string matches every file, per spec.md §4.7.
type predicate struct {
	clauses []clause
}

type clauseKind int

const (
	clauseExtIn clauseKind = iota
	clauseHasTag
	clauseSizeCompare
)

type compareOp int

const (
	opGT compareOp = iota
	opGE
	opLT
	opLE
	opEQ
)

type clause struct {
	kind  clauseKind
	exts  []string
	tag   string
	op    compareOp
	bound uint64
}

func parsePredicate(expr string) (predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return predicate{}, nil
	}
	var clauses []clause
	for _, part := range strings.Split(expr, "&&") {
		c, err := parseClause(strings.TrimSpace(part))
		if err != nil {
			return predicate{}, err
		}
		clauses = append(clauses, c)
	}
	return predicate{clauses: clauses}, nil
}

func parseClause(part string) (clause, error) {
	switch {
	case strings.HasPrefix(part, "ext in ["):
		inner := strings.TrimSuffix(strings.TrimPrefix(part, "ext in ["), "]")
		var exts []string
		for _, e := range strings.Split(inner, ",") {
			exts = append(exts, strings.ToLower(strings.TrimSpace(e)))
		}
		return clause{kind: clauseExtIn, exts: exts}, nil

	case strings.HasPrefix(part, "has_tag(") && strings.HasSuffix(part, ")"):
		tag := strings.TrimSuffix(strings.TrimPrefix(part, "has_tag("), ")")
		return clause{kind: clauseHasTag, tag: strings.TrimSpace(tag)}, nil

	case strings.HasPrefix(part, "size"):
		rest := strings.TrimSpace(strings.TrimPrefix(part, "size"))
		op, numStr, err := splitOp(rest)
		if err != nil {
			return clause{}, err
		}
		n, err := strconv.ParseUint(strings.TrimSpace(numStr), 10, 64)
		if err != nil {
			return clause{}, fmt.Errorf("rules: invalid size bound in %q: %w", part, err)
		}
		return clause{kind: clauseSizeCompare, op: op, bound: n}, nil

	default:
		return clause{}, fmt.Errorf("rules: unrecognized predicate clause %q", part)
	}
}

func splitOp(s string) (compareOp, string, error) {
	switch {
	case strings.HasPrefix(s, ">="):
		return opGE, s[2:], nil
	case strings.HasPrefix(s, "<="):
		return opLE, s[2:], nil
	case strings.HasPrefix(s, "=="):
		return opEQ, s[2:], nil
	case strings.HasPrefix(s, ">"):
		return opGT, s[1:], nil
	case strings.HasPrefix(s, "<"):
		return opLT, s[1:], nil
	default:
		return 0, "", fmt.Errorf("rules: missing comparison operator in %q", s)
	}
}

func (p predicate) matches(attrs Attrs) bool {
	for _, c := range p.clauses {
		if !c.matches(attrs) {
			return false
		}
	}
	return true
}

func (c clause) matches(attrs Attrs) bool {
	switch c.kind {
	case clauseExtIn:
		ext := strings.TrimPrefix(strings.ToLower(extOf(attrs)), ".")
		for _, want := range c.exts {
			if ext == want {
				return true
			}
		}
		return false
	case clauseHasTag:
		return attrs.hasTag(c.tag)
	case clauseSizeCompare:
		size := attrs.File.Size
		switch c.op {
		case opGT:
			return size > c.bound
		case opGE:
			return size >= c.bound
		case opLT:
			return size < c.bound
		case opLE:
			return size <= c.bound
		case opEQ:
			return size == c.bound
		}
	}
	return false
}

func extOf(attrs Attrs) string {
	ext, _ := resolvePlaceholder("ext", attrs)
	return ext
}
