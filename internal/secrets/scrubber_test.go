package secrets

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/brizzbuzz/cfgscrub/internal/config"
	"github.com/brizzbuzz/cfgscrub/internal/errors"
)

func newTestScrubber(t *testing.T) *Scrubber {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	return NewScrubber(cfg, nil)
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestScrub_ClearsGoogleSecrets(t *testing.T) {
	s := newTestScrubber(t)

	input := `{"Authentication":{"Google":{"ClientId":"1234.apps.googleusercontent.com","ClientSecret":"GOCSPX-secret","CallbackPath":"/signin-google"},"Meta":{"AppId":"42","AppSecret":"meta-secret"}},"ConnectionStrings":{"DefaultConnection":"Host=localhost"}}`

	out, result, err := s.Scrub([]byte(input))
	require.NoError(t, err)

	expected := `{
  "Authentication": {
    "Google": {
      "ClientId": "",
      "ClientSecret": "",
      "CallbackPath": "/signin-google"
    },
    "Meta": {
      "AppId": "42",
      "AppSecret": "meta-secret"
    }
  },
  "ConnectionStrings": {
    "DefaultConnection": "Host=localhost"
  }
}`
	assert.Equal(t, expected, string(out))

	assert.Equal(t, []string{
		"Authentication.Google.ClientId",
		"Authentication.Google.ClientSecret",
	}, result.Cleared)
	assert.Empty(t, result.Skipped)
	assert.True(t, result.Changed)
	assert.False(t, result.PassThrough())
	assert.Equal(t, len(out), result.Bytes)
}

func TestScrub_PreservesEverythingElse(t *testing.T) {
	s := newTestScrubber(t)

	input := `{
		"Logging": {"LogLevel": {"Default": "Information", "Microsoft.AspNetCore": "Warning"}},
		"Authentication": {
			"Google": {"ClientSecret": "y", "Scopes": ["openid", "email"], "ClientId": "x", "Enabled": true},
			"Meta": {"AppSecret": "keep-me"}
		},
		"Limits": {"MaxBody": 1048576, "Ratio": 0.75, "Nothing": null},
		"AllowedHosts": "*"
	}`

	out, _, err := s.Scrub([]byte(input))
	require.NoError(t, err)

	before := decode(t, []byte(input))
	after := decode(t, out)

	google := before["Authentication"].(map[string]any)["Google"].(map[string]any)
	google["ClientId"] = ""
	google["ClientSecret"] = ""
	assert.Equal(t, before, after)

	// Keys keep their original order, including inside Google.
	text := string(out)
	assert.Less(t, strings.Index(text, `"Logging"`), strings.Index(text, `"Authentication"`))
	assert.Less(t, strings.Index(text, `"Authentication"`), strings.Index(text, `"Limits"`))
	assert.Less(t, strings.Index(text, `"ClientSecret"`), strings.Index(text, `"Scopes"`))
	assert.Less(t, strings.Index(text, `"Scopes"`), strings.Index(text, `"ClientId"`))
}

func TestScrub_CreatesMissingFieldsInsideGoogle(t *testing.T) {
	s := newTestScrubber(t)

	out, result, err := s.Scrub([]byte(`{"Authentication":{"Google":{"CallbackPath":"/cb"}}}`))
	require.NoError(t, err)

	expected := `{
  "Authentication": {
    "Google": {
      "CallbackPath": "/cb",
      "ClientId": "",
      "ClientSecret": ""
    }
  }
}`
	assert.Equal(t, expected, string(out))
	assert.Len(t, result.Cleared, 2)
}

func TestScrub_AbsentStructureIsPassThrough(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no authentication", `{"Logging":{"LogLevel":{"Default":"Debug"}}}`},
		{"authentication without google", `{"Authentication":{"Meta":{"AppId":"1","AppSecret":"2"}}}`},
		{"google is a string", `{"Authentication":{"Google":"disabled"}}`},
		{"google is null", `{"Authentication":{"Google":null}}`},
		{"google is an array", `{"Authentication":{"Google":[{"ClientId":"x"}]}}`},
		{"authentication is an array", `{"Authentication":[{"Google":{"ClientId":"x"}}]}`},
		{"authentication is a string", `{"Authentication":"none"}`},
		{"top level array", `[{"Authentication":{"Google":{"ClientId":"x"}}}]`},
		{"top level string", `"Authentication.Google"`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScrubber(t)

			out, result, err := s.Scrub([]byte(tt.input))
			require.NoError(t, err)

			var before, after any
			require.NoError(t, json.Unmarshal([]byte(tt.input), &before))
			require.NoError(t, json.Unmarshal(out, &after))
			assert.Equal(t, before, after)

			assert.True(t, result.PassThrough())
			assert.Equal(t, []string{"Authentication.Google"}, result.Skipped)
			assert.NotContains(t, string(out), `"ClientSecret"`)
		})
	}
}

func TestScrub_Idempotent(t *testing.T) {
	s := newTestScrubber(t)

	input := `{"Authentication":{"Google":{"ClientId":"a","ClientSecret":"b"}},"Name":"Zoë"}`

	once, _, err := s.Scrub([]byte(input))
	require.NoError(t, err)

	twice, result, err := s.Scrub(once)
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
	assert.False(t, result.Changed)
	assert.Equal(t, result.InputDigest, result.OutputDigest)
}

func TestScrub_Formatting(t *testing.T) {
	s := newTestScrubber(t)

	input := `{"Cafe":"café","Greeting":"שלום","Html":"<b>&</b>","Nested":{"List":[1,2]}}`

	out, _, err := s.Scrub([]byte(input))
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, `"Cafe": "café"`)
	assert.Contains(t, text, `"Greeting": "שלום"`)
	assert.Contains(t, text, `"Html": "<b>&</b>"`)
	assert.NotContains(t, text, `\u00e9`)
	assert.True(t, strings.HasPrefix(text, "{\n  \"Cafe\""))
	assert.Contains(t, text, "\n  \"Nested\": {\n    \"List\": [\n      1,\n      2\n    ]\n  }\n}")
	assert.False(t, strings.HasSuffix(text, "\n"))
}

func TestScrub_CustomIndentAndPlaceholder(t *testing.T) {
	cfg, err := config.Load([]byte("indent: \"\\t\"\nplaceholder: REDACTED\n"))
	require.NoError(t, err)
	s := NewScrubber(cfg, nil)

	out, _, err := s.Scrub([]byte(`{"Authentication":{"Google":{"ClientId":"x"}}}`))
	require.NoError(t, err)

	assert.Equal(t, "{\n\t\"Authentication\": {\n\t\t\"Google\": {\n\t\t\t\"ClientId\": \"REDACTED\",\n\t\t\t\"ClientSecret\": \"REDACTED\"\n\t\t}\n\t}\n}", string(out))
}

func TestScrub_MultipleTargets(t *testing.T) {
	cfg, err := config.Load([]byte(`
targets:
  - container: Authentication.Google
    fields: [ClientId, ClientSecret]
  - container: Authentication.Meta
    fields: [AppSecret]
`))
	require.NoError(t, err)
	s := NewScrubber(cfg, nil)

	out, result, err := s.Scrub([]byte(`{"Authentication":{"Meta":{"AppId":"1","AppSecret":"2"}}}`))
	require.NoError(t, err)

	doc := decode(t, out)
	meta := doc["Authentication"].(map[string]any)["Meta"].(map[string]any)
	assert.Equal(t, "1", meta["AppId"])
	assert.Equal(t, "", meta["AppSecret"])
	assert.Equal(t, []string{"Authentication.Meta.AppSecret"}, result.Cleared)
	assert.Equal(t, []string{"Authentication.Google"}, result.Skipped)
}

func TestScrub_InvalidDocuments(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		issue string
	}{
		{"truncated", []byte(`{"Authentication":{"Google":`), "not valid JSON"},
		{"trailing comma", []byte(`{"a":1,}`), "not valid JSON"},
		{"comment", []byte("{\n// dev only\n\"a\":1}"), "not valid JSON"},
		{"empty", []byte(``), "not valid JSON"},
		{"invalid utf-8", []byte{'{', '"', 'a', '"', ':', '"', 0xff, '"', '}'}, "not valid UTF-8"},
		{"bom", append([]byte{0xEF, 0xBB, 0xBF}, `{"a":1}`...), "byte-order mark"},
		{"nan", []byte(`{"Timeout":NaN}`), "not valid JSON"},
		{"infinity", []byte(`{"Timeout":-Infinity}`), "not valid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScrubber(t)

			out, result, err := s.Scrub(tt.input)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.Nil(t, result)

			var se *errors.ScrubError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, errors.KindParse, se.Kind)
			assert.Contains(t, se.Issue, tt.issue)
			assert.ErrorIs(t, err, errors.ErrOperationFailed)
		})
	}
}

func TestScrub_LogsSkippedContainers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg, err := config.Default()
	require.NoError(t, err)
	s := NewScrubber(cfg, zap.New(core))

	_, _, err = s.Scrub([]byte(`{"Authentication":{}}`))
	require.NoError(t, err)

	entries := logs.FilterMessage("Container not present, leaving document as is").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "scrubber", entries[0].LoggerName)
	assert.Equal(t, "Authentication.Google", entries[0].ContextMap()["container"])
}

func TestScrub_DuplicateKeys(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		expected   string
		duplicates []string
	}{
		{
			name:  "repeated secret inside Google",
			input: `{"Authentication":{"Google":{"ClientId":"a","ClientSecret":"b","ClientSecret":"LEAK"}}}`,
			expected: `{
  "Authentication": {
    "Google": {
      "ClientId": "",
      "ClientSecret": ""
    }
  }
}`,
			duplicates: []string{"Authentication.Google.ClientSecret"},
		},
		{
			name:  "repeated Authentication section",
			input: `{"Authentication":{"Google":{"ClientId":"a","ClientSecret":"s"}},"Name":"x","Authentication":{"Google":{"ClientId":"LEAK2","ClientSecret":"LEAK3"}}}`,
			expected: `{
  "Authentication": {
    "Google": {
      "ClientId": "",
      "ClientSecret": ""
    }
  },
  "Name": "x"
}`,
			duplicates: []string{"Authentication"},
		},
		{
			name:  "repeated Google section",
			input: `{"Authentication":{"Google":{"ClientId":"LEAK"},"Google":{"ClientSecret":"LEAK2","CallbackPath":"/cb"}}}`,
			expected: `{
  "Authentication": {
    "Google": {
      "ClientSecret": "",
      "CallbackPath": "/cb",
      "ClientId": ""
    }
  }
}`,
			duplicates: []string{"Authentication.Google"},
		},
		{
			name:  "last Google is not an object",
			input: `{"Authentication":{"Google":{"ClientId":"LEAK"},"Google":"disabled"}}`,
			expected: `{
  "Authentication": {
    "Google": "disabled"
  }
}`,
			duplicates: []string{"Authentication.Google"},
		},
		{
			name:  "escaped spelling of the same key",
			input: `{"Authentication":{"Google":{"ClientId":"a","Client\u0049d":"LEAK"}}}`,
			expected: `{
  "Authentication": {
    "Google": {
      "ClientId": "",
      "ClientSecret": ""
    }
  }
}`,
			duplicates: []string{"Authentication.Google.ClientId"},
		},
		{
			name:  "duplicates outside the target",
			input: `{"Hosts":[{"Name":"a","Name":"b"}],"Port":1,"Port":2}`,
			expected: `{
  "Hosts": [
    {
      "Name": "b"
    }
  ],
  "Port": 2
}`,
			duplicates: []string{"Port", "Hosts[0].Name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScrubber(t)

			out, result, err := s.Scrub([]byte(tt.input))
			require.NoError(t, err)

			assert.Equal(t, tt.expected, string(out))
			assert.NotContains(t, string(out), "LEAK")
			assert.Equal(t, tt.duplicates, result.Duplicates)
		})
	}
}

func TestScrub_EscapedInput(t *testing.T) {
	s := newTestScrubber(t)

	input := `{"Name":"caf\u00e9","Url":"https:\/\/amesa.example\/x","Emoji":"\ud83d\ude00","Quote":"a\"b\\c","Control":"line\nnext\u0001","Key\u00e9":1,"Ratio":1.50}`

	out, _, err := s.Scrub([]byte(input))
	require.NoError(t, err)

	expected := `{
  "Name": "café",
  "Url": "https://amesa.example/x",
  "Emoji": "😀",
  "Quote": "a\"b\\c",
  "Control": "line\nnext\u0001",
  "Keyé": 1,
  "Ratio": 1.50
}`
	assert.Equal(t, expected, string(out))

	var before, after any
	require.NoError(t, json.Unmarshal([]byte(input), &before))
	require.NoError(t, json.Unmarshal(out, &after))
	assert.Equal(t, before, after)

	again, result, err := s.Scrub(out)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(again))
	assert.False(t, result.Changed)
}

func TestScrub_LogsDuplicateKeys(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	cfg, err := config.Default()
	require.NoError(t, err)
	s := NewScrubber(cfg, zap.New(core))

	_, _, err = s.Scrub([]byte(`{"a":1,"a":2}`))
	require.NoError(t, err)

	entries := logs.FilterMessage("Collapsed duplicate keys, keeping the last value of each").All()
	require.Len(t, entries, 1)
	assert.Equal(t, []any{"a"}, entries[0].ContextMap()["keys"])
}
