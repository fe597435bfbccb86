package multicall

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

type fakeMulticall3 struct {
	t        *testing.T
	address  common.Address
	reverted map[common.Address]bool
	calls    int
}

func (f *fakeMulticall3) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	require.NotNil(f.t, msg.To)
	require.Equal(f.t, f.address, *msg.To)

	method := parsedMulticall3.Methods["aggregate3"]
	require.True(f.t, bytes.Equal(method.ID, msg.Data[:4]))

	values, err := method.Inputs.Unpack(msg.Data[4:])
	require.NoError(f.t, err)
	var in []call3
	require.NoError(f.t, method.Inputs.Copy(&in, values))

	out := make([]call3Result, len(in))
	for i, c := range in {
		require.True(f.t, c.AllowFailure)
		if f.reverted[c.Target] {
			out[i] = call3Result{Success: false}
			continue
		}
		// echo the selector back so the test can check ordering
		out[i] = call3Result{Success: true, ReturnData: common.LeftPadBytes(c.CallData[:4], 32)}
	}
	return method.Outputs.Pack(out)
}

func TestAggregate3_PreservesOrderAndFailures(t *testing.T) {
	mc := common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")
	bad := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	fake := &fakeMulticall3{t: t, address: mc, reverted: map[common.Address]bool{bad: true}}

	calls := []Call{
		{Target: common.HexToAddress("0x01"), CallData: []byte{0xaa, 0, 0, 1}},
		{Target: bad, CallData: []byte{0xbb, 0, 0, 2}},
		{Target: common.HexToAddress("0x03"), CallData: []byte{0xcc, 0, 0, 3}},
	}

	res, err := NewAggregate3(fake, mc).Aggregate(context.Background(), calls)
	require.NoError(t, err)
	require.Len(t, res, 3)
	require.Equal(t, 1, fake.calls)

	require.True(t, res[0].Success)
	require.Equal(t, byte(0xaa), res[0].ReturnData[28])
	require.False(t, res[1].Success)
	require.Error(t, res[1].Err)
	require.True(t, res[2].Success)
	require.Equal(t, byte(0xcc), res[2].ReturnData[28])
}

func TestAggregate3_NativeBalanceGoesThroughGetEthBalance(t *testing.T) {
	mc := common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")
	fake := &fakeMulticall3{t: t, address: mc}

	res, err := NewAggregate3(fake, mc).Aggregate(context.Background(), []Call{NativeBalanceCall(common.HexToAddress("0x1234"))})
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.True(t, res[0].Success)
	require.Equal(t, parsedMulticall3.Methods["getEthBalance"].ID, res[0].ReturnData[28:])
}

func TestAggregate3_EmptyBatch(t *testing.T) {
	fake := &fakeMulticall3{t: t}
	res, err := NewAggregate3(fake, common.Address{}).Aggregate(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, res)
	require.Zero(t, fake.calls)
}

type jsonrpcReq struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func TestRPCBatch_PerElementErrors(t *testing.T) {
	bad := strings.ToLower(common.HexToAddress("0xbb").Hex())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqs []jsonrpcReq
		if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
			http.Error(w, "expected batch", http.StatusBadRequest)
			return
		}
		resp := make([]map[string]any, 0, len(reqs))
		for _, req := range reqs {
			item := map[string]any{"jsonrpc": "2.0", "id": req.ID}
			switch req.Method {
			case "eth_getBalance":
				item["result"] = "0x64"
			case "eth_call":
				var arg struct {
					To string `json:"to"`
				}
				_ = json.Unmarshal(req.Params[0], &arg)
				if strings.ToLower(arg.To) == bad {
					item["error"] = map[string]any{"code": 3, "message": "execution reverted"}
				} else {
					item["result"] = "0x" + strings.Repeat("0", 63) + "7"
				}
			}
			resp = append(resp, item)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client, err := rpc.DialContext(context.Background(), srv.URL)
	require.NoError(t, err)
	defer client.Close()

	res, err := NewRPCBatch(client).Aggregate(context.Background(), []Call{
		{Target: common.HexToAddress("0x01"), CallData: []byte{1, 2, 3, 4}},
		{Target: common.HexToAddress("0xbb"), CallData: []byte{1, 2, 3, 4}},
		NativeBalanceCall(common.HexToAddress("0x02")),
	})
	require.NoError(t, err)
	require.Len(t, res, 3)

	require.True(t, res[0].Success)
	require.Equal(t, int64(7), new(big.Int).SetBytes(res[0].ReturnData).Int64())
	require.False(t, res[1].Success)
	require.Error(t, res[1].Err)
	require.True(t, res[2].Success)
	require.Len(t, res[2].ReturnData, 32)
	require.Equal(t, int64(100), new(big.Int).SetBytes(res[2].ReturnData).Int64())
}
