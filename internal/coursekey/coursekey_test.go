package coursekey

import (
	"testing"

	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"v1 key", "course-v1:edX+DemoX+2024", "course-v1:edX+DemoX+2024", false},
		{"legacy key", "edX/DemoX/2024", "edX/DemoX/2024", false},
		{"trims whitespace", "  course-v1:edX+DemoX+T1 ", "course-v1:edX+DemoX+T1", false},
		{"too few parts", "course-v1:edX+DemoX", "", true},
		{"empty part", "course-v1:edX++T1", "", true},
		{"garbage", "not a course", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidCourseKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key.String())
		})
	}
}

func TestRootUsageKey(t *testing.T) {
	key, err := Parse("course-v1:edX+DemoX+2024")
	require.NoError(t, err)
	assert.Equal(t, "block-v1:edX+DemoX+2024+type@course+block@course", key.RootUsageKey().String())
}

func TestParseUsageKey_RoundTrip(t *testing.T) {
	raw := "block-v1:edX+DemoX+2024+type@vertical+block@abc123"
	u, err := ParseUsageKey(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.BlockVertical, u.BlockType)
	assert.Equal(t, "abc123", u.BlockID)
	assert.Equal(t, "course-v1:edX+DemoX+2024", u.Course.String())
	assert.Equal(t, raw, u.String())
}

func TestParseUsageKey_Invalid(t *testing.T) {
	for _, raw := range []string{
		"course-v1:edX+DemoX+2024",
		"block-v1:edX+DemoX+2024+vertical+abc",
		"block-v1:edX+DemoX+2024+type@+block@abc",
		"block-v1:edX+DemoX+type@vertical+block@abc",
	} {
		_, err := ParseUsageKey(raw)
		assert.Error(t, err, raw)
	}
}

func TestBlockIDOf(t *testing.T) {
	assert.Equal(t, "p1", BlockIDOf("block-v1:edX+DemoX+2024+type@problem+block@p1"))
	assert.Equal(t, "plain", BlockIDOf("plain"))
}
