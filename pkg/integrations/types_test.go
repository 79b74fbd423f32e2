package integrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	assert.Equal(t, Defaults(), Parse(""))
	assert.Equal(t, Defaults(), Parse("{}"))
	assert.Equal(t, Defaults(), Parse("not json"))

	got := Parse(`{"sms":{"connected":true,"accountSid":"AC1234567890","adminPhone":"+16502530000"}}`)
	assert.True(t, got.SMS.Connected)
	assert.Equal(t, "AC1234567890", got.SMS.AccountSID)
	assert.Equal(t, "sendgrid", got.Email.Provider, "missing sections keep defaults")
}

func TestEncode_RoundTrip(t *testing.T) {
	in := Defaults()
	in.WhatsApp.Connected = true
	in.WhatsApp.PhoneNumberID = "10987"
	in.Google.LastSync = "2026-03-10T12:00:00Z"

	raw, err := in.Encode()
	require.NoError(t, err)
	assert.Contains(t, raw, `"phoneNumberId":"10987"`)
	assert.Equal(t, in, Parse(raw))
}

func TestIsMockData(t *testing.T) {
	assert.True(t, IsMockData(SMSSettings{AccountSID: "ACtest"}))
	assert.True(t, IsMockData(WhatsAppSettings{AccessToken: "DEMO-token"}))
	assert.True(t, IsMockData(GoogleSettings{CustomerID: "1234567890"}))
	assert.False(t, IsMockData(SMSSettings{AccountSID: "AC9f8e7d6c5b4a", AuthToken: "a1b2c3"}))

	tested := SMSSettings{AccountSID: "AC9f8e7d6c5b4a", AuthToken: "a1b2c3"}
	tested.LastTested = "2026-03-10T12:00:00Z"
	tested.StatusMessage = "Live connection verified."
	assert.False(t, IsMockData(tested), "status fields are not credentials")
}

func TestSimulated(t *testing.T) {
	i := Defaults()
	assert.False(t, i.Simulated(SMS), "not connected")

	i.SMS.Connected = true
	i.SMS.AccountSID = "AC1"
	assert.True(t, i.Simulated(SMS), "short sid")

	i.SMS.AccountSID = "AC9f8e7d6c5b4a"
	i.SMS.AuthToken = "f00dfeed"
	assert.False(t, i.Simulated(SMS))

	i.Facebook.Connected = true
	assert.True(t, i.Simulated(Facebook))
}

func TestStatusOf(t *testing.T) {
	i := Defaults()
	st, ok := i.StatusOf(WhatsApp)
	require.True(t, ok)
	st.Connected = true
	assert.True(t, i.Connected(WhatsApp))

	_, ok = i.StatusOf("pager")
	assert.False(t, ok)
}
