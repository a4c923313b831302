package ingest

// collectionMappings are applied when a collection's index is created.
// Timestamps are epoch millis. The producer bookkeeping maps inside block
// state documents are stored but not indexed, their key sets are unbounded.
var collectionMappings = map[string]string{
	CollectionAccounts: `{
		"mappings": {
			"properties": {
				"name":     { "type": "keyword" },
				"abi":      { "type": "object", "enabled": false },
				"createAt": { "type": "date", "format": "epoch_millis" },
				"updateAt": { "type": "date", "format": "epoch_millis" }
			}
		}
	}`,
	CollectionBlockStates: `{
		"mappings": {
			"properties": {
				"block_num":        { "type": "long" },
				"block_id":         { "type": "keyword" },
				"validated":        { "type": "boolean" },
				"in_current_chain": { "type": "boolean" },
				"block_header_state": { "type": "object", "enabled": false },
				"createAt":         { "type": "date", "format": "epoch_millis" }
			}
		}
	}`,
	CollectionBlocks: `{
		"mappings": {
			"properties": {
				"block_num":    { "type": "long" },
				"block_id":     { "type": "keyword" },
				"irreversible": { "type": "boolean" },
				"createAt":     { "type": "date", "format": "epoch_millis" },
				"updateAt":     { "type": "date", "format": "epoch_millis" }
			}
		}
	}`,
	CollectionTransactions: `{
		"mappings": {
			"properties": {
				"id":            { "type": "keyword" },
				"accepted":      { "type": "boolean" },
				"ref_block_num": { "type": "long" },
				"createAt":      { "type": "date", "format": "epoch_millis" }
			}
		}
	}`,
	CollectionTransactionTraces: `{
		"mappings": {
			"properties": {
				"id":        { "type": "keyword" },
				"block_num": { "type": "long" },
				"status":    { "type": "keyword" },
				"elapsed":   { "type": "long" },
				"net_usage": { "type": "long" },
				"createAt":  { "type": "date", "format": "epoch_millis" }
			}
		}
	}`,
	CollectionActions: `{
		"mappings": {
			"properties": {
				"trx_id":   { "type": "keyword" },
				"receiver": { "type": "keyword" },
				"createAt": { "type": "date", "format": "epoch_millis" }
			}
		}
	}`,
}

// Collections lists every collection the pipeline writes, in creation order
func Collections() []string {
	return []string{
		CollectionAccounts,
		CollectionBlockStates,
		CollectionBlocks,
		CollectionTransactions,
		CollectionTransactionTraces,
		CollectionActions,
	}
}
