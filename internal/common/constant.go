package common

// ConfigPathEnv names the environment variable consulted for the JSON config
// file path when neither -c nor -config is given.
const ConfigPathEnv = "BLINDAUCTION_CONFIG"

// AmountDecimals is the fixed-point scale of every on-chain amount.
const AmountDecimals = 18
