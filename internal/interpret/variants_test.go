package interpret

import (
	"slices"
	"testing"
)

func TestVariants(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		phrase string
		want   []string
	}{
		{
			"connectors and prefixes",
			"inca kola y mas",
			[]string{"inca kola y mas", "inca kola mas", "incakolamas", "incako", "inca"},
		},
		{
			"stop words",
			"botella de agua",
			[]string{"botella de agua", "botelladeagua", "botella agua", "botell", "bote"},
		},
		{
			"single short word",
			"pan",
			[]string{"pan"},
		},
		{
			"empty",
			"",
			nil,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Variants(tc.phrase)
			if !slices.Equal(got, tc.want) {
				t.Fatalf("Variants(%q) = %q, want %q", tc.phrase, got, tc.want)
			}
		})
	}
}

func TestVariantsNoDuplicates(t *testing.T) {
	t.Parallel()

	got := Variants("onigiris")
	seen := make(map[string]struct{}, len(got))
	for _, v := range got {
		if _, dup := seen[v]; dup {
			t.Fatalf("duplicate variant %q in %q", v, got)
		}
		seen[v] = struct{}{}
	}
	if got[0] != "onigiris" {
		t.Fatalf("first variant must be the phrase itself, got %q", got[0])
	}
}
