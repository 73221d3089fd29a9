package decode

import "transferScan/internal/model"

// AsTransfer flattens a decoded Transfer(address,address,uint256) record.
func AsTransfer(r *Record) (model.Transfer, bool) {
	if r == nil || r.Event != "Transfer" || len(r.Indexed) != 2 {
		return model.Transfer{}, false
	}
	from, ok := r.Indexed[0].Address()
	if !ok {
		return model.Transfer{}, false
	}
	to, ok := r.Indexed[1].Address()
	if !ok {
		return model.Transfer{}, false
	}
	value, ok := r.Amount()
	if !ok {
		return model.Transfer{}, false
	}
	return model.Transfer{
		BlockNumber: r.Log.BlockNumber,
		TxHash:      r.Log.TxHash.Hex(),
		LogIndex:    r.Log.LogIndex,
		Token:       r.Log.Address.Hex(),
		From:        from.Hex(),
		To:          to.Hex(),
		Value:       value.String(),
	}, true
}
