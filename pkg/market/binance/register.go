package binance

import "sigflow/pkg/market"

func init() {
	market.RegisterProvider("binance", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		return NewProvider(cfg.BaseURL), nil
	})
}
