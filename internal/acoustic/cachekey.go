package acoustic

import "fmt"

type resultKind int

const (
	kindAmplitude resultKind = iota
	kindQuadrature
)

func (k resultKind) token() string {
	if k == kindAmplitude {
		return "A"
	}
	return "Q"
}

// cacheKey composes the acoustic cache key:
// {store_uri}.{prefix?}.{project}.{track}.{channel}.{CV|NC}.{A|Q}.{index}
func (c *Channel) cacheKey(kind resultKind, index int64) string {
	conv := "NC"
	if c.convolveEnabled {
		conv = "CV"
	}
	if c.keyPrefix != "" {
		return fmt.Sprintf("%s.%s.%s.%s.%s.%s.%s.%d",
			c.storeURI, c.keyPrefix, c.project, c.track, c.channel, conv, kind.token(), index)
	}
	return fmt.Sprintf("%s.%s.%s.%s.%s.%s.%d",
		c.storeURI, c.project, c.track, c.channel, conv, kind.token(), index)
}
