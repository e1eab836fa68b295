// Package rxnorm 通过 RxNav REST API 将药品名称标准化为成分名称。
package rxnorm
