package interp

import "strings"

// maxField bounds field indexes and NF on assignment so that a stray
// `$1000000000 = 1` fails instead of allocating the fields.
const maxField = 1 << 20

// record is the current input record: $0, the fields $1..$NF and the
// separator they were split or joined with.
type record struct {
	text   string
	fields []string
	fs     string
}

func newRecord() record {
	r := record{fs: " "}
	r.setText("")
	return r
}

// setText replaces $0 and re-splits it.
func (r *record) setText(s string) {
	r.text = s
	r.split()
}

func (r *record) split() {
	r.fields = splitFields(r.text, r.fs)
}

// rebuild joins the fields back into $0.
func (r *record) rebuild() {
	r.text = strings.Join(r.fields, r.fs)
}

func (r *record) nf() int {
	return len(r.fields)
}

// field returns $i. Reading $0 re-splits the record with the current FS.
// Fields past NF read as "" and do not grow the record.
func (r *record) field(i int) string {
	if i == 0 {
		r.split()
		return r.text
	}
	if i > len(r.fields) {
		return ""
	}
	return r.fields[i-1]
}

// setField assigns $i, padding with empty fields when i > NF, and rebuilds $0.
func (r *record) setField(i int, s string) {
	if i == 0 {
		r.setText(s)
		return
	}
	r.grow(i)
	r.fields[i-1] = s
	r.rebuild()
}

// setNF truncates or pads the field list to n fields and rebuilds $0.
// NF = 0 leaves $0 empty, and the next read of $0 re-splits it into one
// empty field, so NF reads back as 1 from then on.
func (r *record) setNF(n int) {
	if n < len(r.fields) {
		r.fields = r.fields[:n:n]
	} else {
		r.grow(n)
	}
	r.rebuild()
}

func (r *record) grow(n int) {
	for len(r.fields) < n {
		r.fields = append(r.fields, "")
	}
}

// splitFields splits s on the literal separator fs. An empty separator
// puts every character in a field of its own.
func splitFields(s, fs string) []string {
	if fs != "" {
		return strings.Split(s, fs)
	}
	fields := make([]string, 0, len(s))
	for _, c := range s {
		fields = append(fields, string(c))
	}
	return fields
}
