package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "messenger-lab/errors"
)

func Test_Censor_Replaces_Matched_Words(t *testing.T) {
	req := require.New(t)
	censor, err := NewCensor([]string{"darn", "heck"}, '*')
	req.NoError(err)

	censored, hits := censor.Apply("well DARN it, what the heck")
	req.Equal("well **** it, what the ****", censored)
	req.Len(hits, 2)
}

func Test_Censor_Leaves_Clean_Text_Alone(t *testing.T) {
	req := require.New(t)
	censor, err := NewCensor([]string{"darn"}, '*')
	req.NoError(err)

	clean := "a perfectly polite message"
	censored, hits := censor.Apply(clean)
	req.Equal(clean, censored)
	req.Empty(hits)
}

func Test_Censor_Handles_NonASCII(t *testing.T) {
	req := require.New(t)
	censor, err := NewCensor([]string{"zut"}, '#')
	req.NoError(err)

	censored, hits := censor.Apply("héhé, ZuT alors")
	req.Equal("héhé, ### alors", censored)
	req.Len(hits, 1)
}

func Test_Censor_Requires_Words(t *testing.T) {
	_, err := NewCensor(nil, '*')
	require.ErrorIs(t, err, apperrors.ErrEmptyWords)
}
