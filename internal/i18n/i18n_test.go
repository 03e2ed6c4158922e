package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNew_MatchesLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want language.Tag
	}{
		{"uk", language.Ukrainian},
		{"uk-UA", language.Ukrainian},
		{"en", language.English},
		{"en-GB", language.English},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			p, err := New(tc.in)
			require.NoError(t, err)
			base, _ := p.Language().Base()
			wantBase, _ := tc.want.Base()
			assert.Equal(t, wantBase, base)
		})
	}
}

func TestNew_RejectsGarbage(t *testing.T) {
	_, err := New("not a language tag!")
	assert.Error(t, err)
}

func TestSprintf(t *testing.T) {
	en, err := New("en")
	require.NoError(t, err)
	uk, err := New("uk")
	require.NoError(t, err)

	assert.Equal(t, "Your number in this game: 3", en.Sprintf(MemberNumber, 3))
	assert.Equal(t, "Ваш номер у грі: 3", uk.Sprintf(MemberNumber, 3))
	assert.Equal(t, "Too long: 500 of 420 characters", en.Sprintf(TooLong, 500, 420))
}

func TestSprintf_Plural(t *testing.T) {
	en, _ := New("en")
	uk, _ := New("uk")

	assert.Equal(t, "1 second left to join!", en.Sprintf(RegistrationRemind, 1))
	assert.Equal(t, "10 seconds left to join!", en.Sprintf(RegistrationRemind, 10))
	assert.Equal(t, "Залишилось 3 секунди, щоб приєднатися!", uk.Sprintf(RegistrationRemind, 3))
	assert.Equal(t, "Залишилось 10 секунд, щоб приєднатися!", uk.Sprintf(RegistrationRemind, 10))
}

func TestEveryKeyTranslated(t *testing.T) {
	en, _ := New("en")
	uk, _ := New("uk")
	for _, e := range texts {
		assert.NotEqual(t, string(e.key), en.Sprintf(e.key, 1, 1), "missing en text for %s", e.key)
		assert.NotEqual(t, string(e.key), uk.Sprintf(e.key, 1, 1), "missing uk text for %s", e.key)
	}
}
