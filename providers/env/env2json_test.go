package env

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProvider(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		delim    string
		envVars  map[string]string
		expected string
	}{
		{
			name:   "single key",
			prefix: "TEST_",
			delim:  "__",
			envVars: map[string]string{
				"TEST_DATABASE__PASSWORD": "password",
			},
			expected: `{"TEST_DATABASE":{"PASSWORD":"password"}}`,
		},
		{
			name:   "array handling",
			prefix: "TEST_",
			delim:  "__",
			envVars: map[string]string{
				"TEST_DATABASE__0__PASSWORD": "password_1",
				"TEST_DATABASE__1__PASSWORD": "password_2",
				"TEST_DATABASE__2__PASSWORD": "password_3",
			},
			expected: `{"TEST_DATABASE":[{"PASSWORD":"password_1"},{"PASSWORD":"password_2"},{"PASSWORD":"password_3"}]}`,
		},
		{
			name:   "nested keys",
			prefix: "TEST_",
			delim:  "__",
			envVars: map[string]string{
				"TEST_PARENT__CHILD__KEY": "value",
			},
			expected: `{"TEST_PARENT":{"CHILD":{"KEY":"value"}}}`,
		},
		{
			name:   "prefix filtering",
			prefix: "TEST_",
			delim:  "__",
			envVars: map[string]string{
				"TEST_KEY":        "app_value",
				"OTHER_KEY":       "other_value",
				"TEST_OTHER__KEY": "app_other_value",
			},
			expected: `{"TEST_KEY":"app_value","TEST_OTHER":{"KEY":"app_other_value"}}`,
		},
		{
			name:   "no prefix",
			prefix: "",
			delim:  "__",
			envVars: map[string]string{
				"DATABASE__PASSWORD": "password",
			},
			expected: `{"DATABASE":{"PASSWORD":"password"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			provider := Provider(tt.prefix, tt.delim, nil)
			data, err := provider.ReadBytes()
			assert.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestProviderWithCallback(t *testing.T) {
	os.Clearenv()
	t.Setenv("TEST_DATABASE__PASSWORD", "password")

	provider := Provider("TEST_", "__", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "TEST_"))
	})
	data, err := provider.ReadBytes()
	assert.NoError(t, err)
	assert.JSONEq(t, `{"database":{"password":"password"}}`, string(data))
}

func TestProviderCallbackDropsKey(t *testing.T) {
	os.Clearenv()
	t.Setenv("TEST_KEEP", "yes")
	t.Setenv("TEST_DROP", "no")

	provider := Provider("TEST_", "__", func(s string) string {
		if s == "TEST_DROP" {
			return ""
		}
		return strings.ToLower(strings.TrimPrefix(s, "TEST_"))
	})
	data, err := provider.ReadBytes()
	assert.NoError(t, err)
	assert.JSONEq(t, `{"keep":"yes"}`, string(data))
}

func TestProviderWithValue(t *testing.T) {
	os.Clearenv()
	t.Setenv("TEST_TAGS", "a,b,c")

	provider := ProviderWithValue("TEST_", "__", func(key, value string) (string, any) {
		return strings.ToLower(strings.TrimPrefix(key, "TEST_")), strings.Split(value, ",")
	})
	data, err := provider.ReadBytes()
	assert.NoError(t, err)
	assert.JSONEq(t, `{"tags":["a","b","c"]}`, string(data))
}

func TestProviderReadUnsupported(t *testing.T) {
	provider := Provider("TEST_", "__", nil)
	_, err := provider.Read()
	assert.Error(t, err)
}

func TestProviderRereadIsStable(t *testing.T) {
	os.Clearenv()
	t.Setenv("TEST_KEY", "value")

	provider := Provider("TEST_", "__", nil)
	first, err := provider.ReadBytes()
	assert.NoError(t, err)
	second, err := provider.ReadBytes()
	assert.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
}
