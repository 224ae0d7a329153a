package esplora

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bisq-network/bisqeasyd/pkg/explorer"
	"github.com/bisq-network/bisqeasyd/pkg/httputil"
)

type txStatus struct {
	Confirmed bool  `json:"confirmed"`
	BlockTime int64 `json:"block_time"`
}

type txOutput struct {
	ScriptpubkeyAddress string `json:"scriptpubkey_address"`
	Value               uint64 `json:"value"`
}

type tx struct {
	Txid   string     `json:"txid"`
	Status txStatus   `json:"status"`
	Vout   []txOutput `json:"vout"`
}

func (e *esplora) GetTransaction(txid string) (*explorer.Tx, error) {
	url := fmt.Sprintf("%s/tx/%s", e.apiURL, txid)
	status, resp, err := httputil.NewHTTPRequest("GET", url, "", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, explorer.ErrTransactionNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s", resp)
	}

	return parseTransaction(resp)
}

func parseTransaction(resp string) (*explorer.Tx, error) {
	var t tx
	if err := json.Unmarshal([]byte(resp), &t); err != nil {
		return nil, err
	}

	outputs := make([]explorer.TxOutput, 0, len(t.Vout))
	for _, out := range t.Vout {
		outputs = append(outputs, explorer.TxOutput{
			Address: out.ScriptpubkeyAddress,
			Value:   out.Value,
		})
	}

	return &explorer.Tx{
		Txid:      t.Txid,
		Confirmed: t.Status.Confirmed,
		BlockTime: t.Status.BlockTime,
		Outputs:   outputs,
	}, nil
}
