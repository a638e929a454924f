package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeToken(t *testing.T) {
	tests := []struct {
		name string
		dest Destination
		cc   string
		want string
	}{
		{name: "linkedin localized", dest: ProfessionalNetwork, cc: "rs", want: "site:rs.linkedin.com/in"},
		{name: "linkedin generic", dest: ProfessionalNetwork, cc: "", want: "site:linkedin.com/in"},
		{name: "upwork ignores country", dest: FreelanceMarketplace, cc: "de", want: "site:upwork.com/freelancers"},
		{name: "github", dest: CodeHosting, cc: "rs", want: "site:github.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, ok := Lookup(tt.dest)
			require.True(t, ok)
			assert.Equal(t, tt.want, cfg.ScopeToken(tt.cc))
		})
	}
}

func TestParse(t *testing.T) {
	d, err := Parse(" Code-Hosting ")
	require.NoError(t, err)
	assert.Equal(t, CodeHosting, d)

	_, err = Parse("myspace")
	assert.Error(t, err)
}

func TestProfile(t *testing.T) {
	tests := []struct {
		name      string
		dest      Destination
		link      string
		canonical string
		ok        bool
	}{
		{name: "linkedin country subdomain", dest: ProfessionalNetwork, link: "https://rs.linkedin.com/in/Jane-Doe-123/?trk=x", canonical: "https://www.linkedin.com/in/jane-doe-123", ok: true},
		{name: "linkedin company page", dest: ProfessionalNetwork, link: "https://www.linkedin.com/company/acme", ok: false},
		{name: "linkedin foreign host", dest: ProfessionalNetwork, link: "https://notlinkedin.com/in/jane", ok: false},
		{name: "upwork freelancer", dest: FreelanceMarketplace, link: "https://www.upwork.com/freelancers/~01abc?s=1", canonical: "https://www.upwork.com/freelancers/~01abc", ok: true},
		{name: "upwork job", dest: FreelanceMarketplace, link: "https://www.upwork.com/jobs/~01abc", ok: false},
		{name: "github user", dest: CodeHosting, link: "https://github.com/JaneDoe", canonical: "https://github.com/janedoe", ok: true},
		{name: "github repo", dest: CodeHosting, link: "https://github.com/janedoe/project", ok: false},
		{name: "github reserved", dest: CodeHosting, link: "https://github.com/topics", ok: false},
		{name: "garbage", dest: CodeHosting, link: "::not a url", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := Lookup(tt.dest)
			got, ok := cfg.Profile(tt.link)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.canonical, got)
		})
	}
}

func TestCandidateName(t *testing.T) {
	li, _ := Lookup(ProfessionalNetwork)
	assert.Equal(t, "Jane Doe", li.CandidateName("Jane Doe - Senior React Developer - Acme | LinkedIn"))
	assert.Equal(t, "Marko Marković", li.CandidateName("Marko Marković – Frontend | LinkedIn"))

	gh, _ := Lookup(CodeHosting)
	assert.Equal(t, "Jane Doe", gh.CandidateName("janedoe (Jane Doe) · GitHub"))
	assert.Equal(t, "janedoe", gh.CandidateName("janedoe · GitHub"))
}

func TestAdapt(t *testing.T) {
	base := `site:rs.linkedin.com/in ("Senior React developer") ("React" OR "React.js") -"bootcamp"`

	got, err := Adapt(base, ProfessionalNetwork, "rs")
	require.NoError(t, err)
	assert.Equal(t, base, got)

	got, err = Adapt(base, CodeHosting, "rs")
	require.NoError(t, err)
	assert.Equal(t, `site:github.com ("Senior React developer") ("React" OR "React.js") -"bootcamp"`, got)

	got, err = Adapt(`("Go")`, ProfessionalNetwork, "")
	require.NoError(t, err)
	assert.Equal(t, `site:linkedin.com/in ("Go")`, got)

	_, err = Adapt(base, Destination("nowhere"), "")
	assert.Error(t, err)
}

func TestAdapt_FlattensForFreelance(t *testing.T) {
	in := `site:linkedin.com/in (("React developer") ("React" OR "ReactJS")) -"bootcamp"`
	got, err := Adapt(in, FreelanceMarketplace, "")
	require.NoError(t, err)
	assert.Equal(t, `site:upwork.com/freelancers ("React developer" OR "React" OR "ReactJS") -"bootcamp"`, got)
}

func TestFlattenGroups(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "three groups", in: "((A) (B) (C))", want: "(A OR B OR C)"},
		{name: "already flat", in: `("a" OR "b")`, want: `("a" OR "b")`},
		{name: "single nested group kept", in: "((A))", want: "((A))"},
		{name: "mixed content kept", in: "(x (A) (B))", want: "(x (A) (B))"},
		{name: "nested inside mixed", in: "(x ((A) (B)))", want: "(x (A OR B))"},
		{name: "quoted parens ignored", in: `(("a (b)") ("c"))`, want: `("a (b)" OR "c")`},
		{name: "unbalanced", in: "((A) (B)", want: "((A) (B)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlattenGroups(tt.in))
		})
	}
}

func TestShouldSkip(t *testing.T) {
	upwork, _ := Lookup(FreelanceMarketplace)
	linkedin, _ := Lookup(ProfessionalNetwork)

	assert.True(t, upwork.ShouldSkip(true, false, ""))
	assert.True(t, upwork.ShouldSkip(false, true, ""))
	assert.True(t, upwork.ShouldSkip(false, false, `site:upwork.com/freelancers ("founder")`))
	assert.False(t, upwork.ShouldSkip(false, false, `site:upwork.com/freelancers ("React")`))
	assert.False(t, linkedin.ShouldSkip(true, true, `("owner")`))
}
