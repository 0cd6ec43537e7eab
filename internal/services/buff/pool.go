package buff

// CredentialPool 按顺序轮换的 BUFF Cookie 池
// An empty pool is valid and hands out an empty credential.
type CredentialPool struct {
	cookies []string
}

func NewCredentialPool(cookies []string) *CredentialPool {
	c := make([]string, 0, len(cookies))
	for _, v := range cookies {
		if v != "" {
			c = append(c, v)
		}
	}
	return &CredentialPool{cookies: c}
}

// Size returns the number of credentials in the pool.
func (p *CredentialPool) Size() int {
	if p == nil {
		return 0
	}
	return len(p.cookies)
}

// Get returns pool[index mod size].
func (p *CredentialPool) Get(index int) string {
	n := p.Size()
	if n == 0 {
		return ""
	}
	return p.cookies[((index%n)+n)%n]
}
