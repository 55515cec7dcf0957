package chain

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// RevertData extracts revert bytes from a JSON-RPC error (eth_call and
// eth_estimateGas report them as the error's data field).
func RevertData(err error) ([]byte, bool) {
	var de rpc.DataError
	if !errors.As(err, &de) {
		return nil, false
	}
	switch v := de.ErrorData().(type) {
	case string:
		b, err := hexutil.Decode(v)
		if err != nil {
			return nil, false
		}
		return b, true
	case []byte:
		return v, true
	}
	return nil, false
}

// DecodeRevert renders revert data as a human readable reason: the message
// of Error(string), the meaning of Panic(uint256), a contract custom error
// with its arguments, or the raw selector.
func (c *Contract) DecodeRevert(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	if reason, err := abi.UnpackRevert(data); err == nil {
		return reason
	}
	for name, e := range c.ABI.Errors {
		if !bytes.Equal(e.ID[:4], data[:4]) {
			continue
		}
		if len(e.Inputs) == 0 {
			return name
		}
		values, err := e.Inputs.Unpack(data[4:])
		if err != nil {
			return name
		}
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = fmt.Sprint(v)
		}
		return name + "(" + strings.Join(parts, ", ") + ")"
	}
	return "unknown error " + hexutil.Encode(data[:4])
}
