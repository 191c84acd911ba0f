package dukas

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

func decimalFromRaw(raw uint32) decimal.Decimal {
	return decimal.New(int64(raw), -priceScale)
}

// DecodeBi5 parses a decompressed hourly archive. Records are 20 bytes, big-endian:
// uint32 millisecond offset from the hour, uint32 ask, uint32 bid (both price*1e5),
// then float32 ask and bid volumes.
func DecodeBi5(data []byte, hourStart time.Time) ([]Tick, error) {
	if len(data)%recordSize != 0 {
		return nil, fmt.Errorf("archive length %d is not a multiple of %d", len(data), recordSize)
	}
	ticks := make([]Tick, 0, len(data)/recordSize)
	for off := 0; off < len(data); off += recordSize {
		rec := data[off : off+recordSize]
		ms := binary.BigEndian.Uint32(rec[0:4])
		askRaw := binary.BigEndian.Uint32(rec[4:8])
		bidRaw := binary.BigEndian.Uint32(rec[8:12])
		askVol := math.Float32frombits(binary.BigEndian.Uint32(rec[12:16]))
		bidVol := math.Float32frombits(binary.BigEndian.Uint32(rec[16:20]))

		if bidRaw == 0 || askRaw == 0 {
			return nil, fmt.Errorf("record %d: zero price", off/recordSize)
		}
		ticks = append(ticks, Tick{
			Ts:        hourStart.Add(time.Duration(ms) * time.Millisecond),
			Bid:       decimalFromRaw(bidRaw),
			Ask:       decimalFromRaw(askRaw),
			BidVolume: float64(bidVol),
			AskVolume: float64(askVol),
		})
	}
	return ticks, nil
}
