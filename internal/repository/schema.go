package repository

import "fmt"

// SchemaStatements returns idempotent DDL for the tables the ClickHouse
// stores read and write.
func SchemaStatements(database, candleTable, positionTable, tickTable string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, database),
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s.%s (
            symbol   LowCardinality(String),
            interval LowCardinality(String),
            ts       DateTime,
            open     Float64,
            high     Float64,
            low      Float64,
            close    Float64,
            volume   Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, interval, ts)`, database, candleTable),
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s.%s (
            account     String,
            symbol      LowCardinality(String),
            quantity    Float64,
            entry_price Float64,
            updated_at  DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(updated_at)
        ORDER BY (account, symbol)`, database, positionTable),
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s.%s (
            ts     DateTime64(3),
            symbol LowCardinality(String),
            price  Float64,
            volume Float64,
            source LowCardinality(String)
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMMDD(ts)
        ORDER BY (symbol, ts)
        TTL toDateTime(ts) + INTERVAL 30 DAY`, database, tickTable),
	}
}
