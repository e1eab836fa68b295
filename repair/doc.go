// Copyright 2026 reportrepair Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 repair 实现校验-修复循环（Validation-Repair Loop）：
给定候选记录与 Schema 描述符，精确地把违规字段置为 null 并重新校验，
直到整条记录满足描述符。

# 算法

在描述符的每一层上：

 1. 对当前层出现的字段做一次完整校验，缺失或 null 的字段永远合法
 2. 把每个违规字段置为 null，并为其追加一条诊断条目 (标签, 路径, 原因)
 3. 重新校验，直到某一轮没有违规
 4. 递归进入值仍为映射的嵌套对象字段

标量出现在对象位置属于该字段自身的结构性违规：整棵子树被丢弃，
不会为嵌套路径产生条目。数组或映射中的任一非法元素使整个字段置空。
置空不会引入新的违规，因此循环必然收敛，修复轮数不超过描述符字段总数。

# 并发

Repairer 不持有可变状态，可被多个 worker 共享。输入记录按写时复制处理，
调用方的 map 不会被修改。诊断条目在一次 Append 中写入 Sink，保持顺序。
*/
package repair
